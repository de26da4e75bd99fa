package identity

import "strings"

// usernameBase выбирает исходный кандидат имени пользователя:
// локальная часть email → очищенное display name → user_<8 знаков external id>.
func usernameBase(email, displayName, externalID string) string {
	if email != "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			return email[:at]
		}
		return email
	}
	if displayName != "" {
		var b strings.Builder
		for _, c := range displayName {
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
				b.WriteRune(c)
			} else {
				b.WriteByte('_')
			}
		}
		if s := strings.Trim(b.String(), "_"); s != "" {
			return s
		}
	}
	return "user_" + shortID(externalID)
}

func shortID(externalID string) string {
	if len(externalID) > 8 {
		return externalID[:8]
	}
	return externalID
}

// splitDisplayName делит отображаемое имя по первому пробелу
// на имя и фамилию; обе части необязательны.
func splitDisplayName(displayName string) (first, last string) {
	if displayName == "" {
		return "", ""
	}
	parts := strings.SplitN(displayName, " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
