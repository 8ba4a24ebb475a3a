package main

import (
	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/user"
)

// addUser creates a user.User; an existing user with the same email only
// gets its password replaced.
func (cli *commandLine) addUser(email, firstName, lastName, pwd string) error {
	email = core.CleanString(email, true /* lower */)

	if _, err := cli.usrSvc.GetByEmail(email); err == nil {
		return cli.usrSvc.SetPassword(email, pwd)
	} else if err != user.ErrNotFound {
		return err
	}

	nu := user.NewUser{
		Email:           email,
		FirstName:       firstName,
		LastName:        lastName,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	_, err := cli.usrSvc.Register(nu)
	return err
}
