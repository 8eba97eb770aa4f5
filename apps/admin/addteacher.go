package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/user"
)

// addTeacher updates or creates an active teacher account.
func (cli *commandLine) addTeacher(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	var isNew bool
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		isNew = true
		usr = user.User{
			ID:        uuid.New().String(),
			CreatedAt: now,
		}
	}

	usr.Name = core.CleanString(name)
	usr.Username = uname
	usr.Email = email
	usr.Roles = user.TeacherRoles
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if isNew {
		usr.IsActive = true
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	return err
}
