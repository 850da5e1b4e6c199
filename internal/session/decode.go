package session

import (
	"encoding/json"
	"strings"
)

// decodeDocument reads a stored session document. Older clients wrote the
// token as auth_token and the profile as user_data (often a JSON string),
// with roles and permissions under their own keys; those are folded into
// the canonical shape. ok is false for anything unreadable or tokenless.
func decodeDocument(data []byte) (*Session, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}

	token, ok := decodeString(firstPresent(doc, KeyToken, "auth_token"))
	if !ok || strings.TrimSpace(token) == "" {
		return nil, false
	}

	rawUser := firstPresent(doc, KeyUser, "user_data")
	if rawUser == nil {
		return nil, false
	}
	user, ok := decodeUser(rawUser)
	if !ok {
		return nil, false
	}

	if raw, present := doc["roles"]; present && len(user.Roles) == 0 {
		if roles, ok := decodeRoles(raw); ok {
			user.Roles = roles
		}
	}
	if raw, present := doc["permissions"]; present && len(user.Permissions) == 0 {
		if perms, ok := decodePermissions(raw); ok {
			user.Permissions = perms
		}
	}
	return &Session{Token: token, User: user}, true
}

// decodeUser accepts the profile either as an object or as a string
// containing the object.
func decodeUser(raw []byte) (User, bool) {
	var u User
	if !unwrapJSON(raw, &u) {
		return User{}, false
	}
	return u, true
}

// decodeRoles accepts [{"name":"x"}] or ["x"].
func decodeRoles(raw []byte) ([]Role, bool) {
	var roles []Role
	if unwrapJSON(raw, &roles) {
		return roles, true
	}
	var names []string
	if !unwrapJSON(raw, &names) {
		return nil, false
	}
	roles = make([]Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, Role{Name: n})
	}
	return roles, true
}

func decodeString(raw []byte) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// unwrapJSON decodes raw into out, first directly and then, if raw is a
// JSON string, from the string's contents.
func unwrapJSON(raw []byte, out any) bool {
	if err := json.Unmarshal(raw, out); err == nil {
		return true
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return false
	}
	return json.Unmarshal([]byte(inner), out) == nil
}

func firstPresent(doc map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if raw, ok := doc[k]; ok && string(raw) != "null" {
			return raw
		}
	}
	return nil
}

// UnmarshalJSON accepts roles and permissions either as name strings or as
// {"name": ...} objects, since the backend uses both depending on endpoint.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var aux struct {
		plain
		Roles       json.RawMessage `json:"roles"`
		Permissions json.RawMessage `json:"permissions"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	u.Roles = nil
	u.Permissions = nil
	if len(aux.Roles) > 0 && string(aux.Roles) != "null" {
		roles, ok := decodeRoles(aux.Roles)
		if !ok {
			return &json.UnmarshalTypeError{Value: string(aux.Roles), Field: "roles"}
		}
		u.Roles = roles
	}
	if len(aux.Permissions) > 0 && string(aux.Permissions) != "null" {
		perms, ok := decodePermissions(aux.Permissions)
		if !ok {
			return &json.UnmarshalTypeError{Value: string(aux.Permissions), Field: "permissions"}
		}
		u.Permissions = perms
	}
	return nil
}

// decodePermissions accepts ["x"] or [{"name":"x"}].
func decodePermissions(raw []byte) ([]string, bool) {
	var names []string
	if unwrapJSON(raw, &names) {
		return names, true
	}
	var objs []struct {
		Name string `json:"name"`
	}
	if !unwrapJSON(raw, &objs) {
		return nil, false
	}
	names = make([]string, 0, len(objs))
	for _, o := range objs {
		names = append(names, o.Name)
	}
	return names, true
}
