package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annourmah/etudia/core"
)

func TestPasswordPolicy(t *testing.T) {
	validate, translator := core.NewValidation()
	RegisterValidators(validate, translator)

	newUser := func(pwd string) NewUser {
		return NewUser{
			Email:           "jane@test.cd",
			FirstName:       "Jane",
			LastName:        "Roe",
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}

	tests := []struct {
		name    string
		data    NewUser
		wantErr bool
	}{
		{name: "ok", data: newUser("Str0ng&Uniq")},
		{name: "too short", data: newUser("S0&a"), wantErr: true},
		{name: "whitespace", data: newUser("Str0ng& Uniq"), wantErr: true},
		{name: "all numeric", data: newUser("1234567890"), wantErr: true},
		{name: "no uppercase", data: newUser("str0ng&uniq"), wantErr: true},
		{name: "no digit", data: newUser("Strong&Uniq"), wantErr: true},
		{name: "no special", data: newUser("Str0ngUniq"), wantErr: true},
		{name: "similar to email", data: newUser("Jane@test.cd1"), wantErr: true},
		{name: "common password", data: newUser("Password1"), wantErr: true},
		{name: "mismatch", data: NewUser{Email: "jane@test.cd", FirstName: "Jane", LastName: "Roe", Password: "Str0ng&Uniq", PasswordConfirm: "Other&Uniq1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
