package main

func (cli *commandLine) resetPassword(email, pwd string) error {
	return cli.usrSvc.SetPassword(email, pwd)
}
