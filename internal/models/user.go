package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoIdentity means a user record has no usable user id.
var ErrNoIdentity = errors.New("user record has no identity")

// ParseUser decodes a user object leniently: snake_case keys are preferred and
// camelCase aliases accepted. The user id must be a positive integer, given as
// a JSON number or a numeric string.
func ParseUser(raw []byte) (*User, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("user record is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, errors.New("user record is not an object")
	}

	id, err := parseID(firstOf(doc, "user_id", "userId"))
	if err != nil {
		return nil, err
	}

	return &User{
		UserID:   id,
		UserType: UserType(firstOf(doc, "user_type", "userType").String()),
		Name:     doc.Get("name").String(),
		Email:    doc.Get("email").String(),
		Phone:    firstOf(doc, "phone_number", "phone").String(),
		Address:  doc.Get("address").String(),
	}, nil
}

func firstOf(doc gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := doc.Get(k); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func parseID(r gjson.Result) (int64, error) {
	var id int64
	switch r.Type {
	case gjson.Number:
		if r.Num != float64(int64(r.Num)) {
			return 0, fmt.Errorf("%w: user id %s is not an integer", ErrNoIdentity, r.Raw)
		}
		id = r.Int()
	case gjson.String:
		v, err := strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: user id %q", ErrNoIdentity, r.Str)
		}
		id = v
	default:
		return 0, ErrNoIdentity
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: user id %d", ErrNoIdentity, id)
	}
	return id, nil
}
