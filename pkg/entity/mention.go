// SPDX-License-Identifier: MPL-2.0

package entity

import "strings"

// ParseMention extracts the entity ID from a mention token.
//
// Recognized forms:
//
//	<@id> <@!id>  user
//	<#id>         channel
//	<@&id>        role
//
// It reports false when the token is not a mention of the given kind.
// Messages have no mention form.
func ParseMention(kind Kind, token string) (string, bool) {
	if len(token) < 3 || token[0] != '<' || token[len(token)-1] != '>' {
		return "", false
	}
	body := token[1 : len(token)-1]

	var prefixes []string
	switch kind {
	case KindUser:
		prefixes = []string{"@!", "@"}
	case KindChannel:
		prefixes = []string{"#"}
	case KindRole:
		prefixes = []string{"@&"}
	default:
		return "", false
	}

	for _, p := range prefixes {
		if !strings.HasPrefix(body, p) {
			continue
		}
		id := body[len(p):]
		if id == "" || !isSnowflake(id) {
			return "", false
		}
		return id, true
	}
	return "", false
}

// Mention formats id as a mention of the given kind. It returns the bare
// id for kinds without a mention form.
func Mention(kind Kind, id string) string {
	switch kind {
	case KindUser:
		return "<@" + id + ">"
	case KindChannel:
		return "<#" + id + ">"
	case KindRole:
		return "<@&" + id + ">"
	default:
		return id
	}
}

// isSnowflake reports whether s is a decimal identifier.
func isSnowflake(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
