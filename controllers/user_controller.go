package controllers

import (
	"context"
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"

	"study-backend/apperr"
	"study-backend/eventhandlers"
	"study-backend/models"
	"study-backend/services"
	"study-backend/store"
)

// UserRemover deletes a user together with its database role.
type UserRemover func(ctx context.Context, id int) (*models.User, error)

type UserController struct {
	Users   *services.UserService
	Reports *services.ReportService
	Events  *eventhandlers.Publisher
	Remove  UserRemover
}

func NewUserController(users *services.UserService, reports *services.ReportService, events *eventhandlers.Publisher, remove UserRemover) *UserController {
	return &UserController{Users: users, Reports: reports, Events: events, Remove: remove}
}

const userMissing = "The user with this username does not exist in the system"

func (uc *UserController) List(c *fiber.Ctx) error {
	p, err := listParams(c, store.UserColumns)
	if err != nil {
		return err
	}
	users, total, err := StoreOf(c).ListUsers(c.UserContext(), p, nil)
	if err != nil {
		return err
	}
	return sendList(c, p, users, total)
}

func (uc *UserController) Create(c *fiber.Ctx) error {
	var in models.UserCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	st := StoreOf(c)
	ctx := c.UserContext()

	_, err := st.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return apperr.BadRequest("The user with this username already exists in the system.")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if !CurrentUser(c).IsSuperuser {
		return apperr.Forbidden("privelegies error")
	}

	user, err := uc.Users.Create(ctx, st, in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	uc.Events.Publish(ctx, eventhandlers.UserCreated, user.ID, user)
	return c.JSON(user)
}

func (uc *UserController) UpdateMe(c *fiber.Ctx) error {
	var in models.UserMeUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	me := CurrentUser(c)
	user, err := uc.Users.Update(c.UserContext(), StoreOf(c), me.ID, models.UserUpdate{
		Password: in.Password,
		Email:    in.Email,
	})
	if err != nil {
		return storeErr(err, userMissing)
	}
	return c.JSON(user)
}

func (uc *UserController) ReadMe(c *fiber.Ctx) error {
	user, err := StoreOf(c).GetUser(c.UserContext(), CurrentUser(c).ID)
	if err != nil {
		return storeErr(err, userMissing)
	}
	c.Set("Content-Range", "0-1/1")
	return c.JSON(user)
}

func (uc *UserController) Read(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := StoreOf(c).GetUser(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(user)
}

// Report generates a user report file and sends it as an attachment. Any
// generation failure is reported as 404.
func (uc *UserController) Report(c *fiber.Ctx) error {
	var in models.ReportUserCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	rep, err := uc.Reports.Generate(c.UserContext(), StoreOf(c), in.UserID, in.Ext)
	if err != nil {
		return apperr.NotFound(err.Error())
	}
	body, err := os.ReadFile(rep.Path)
	if err != nil {
		return apperr.NotFound(err.Error())
	}
	c.Attachment(rep.Filename)
	c.Set(fiber.HeaderContentType, "text/"+in.Ext)
	return c.Send(body)
}

func (uc *UserController) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in models.UserUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	st := StoreOf(c)
	if _, err := st.GetUser(c.UserContext(), id); err != nil {
		return storeErr(err, userMissing)
	}
	user, err := uc.Users.Update(c.UserContext(), st, id, in)
	if err != nil {
		return storeErr(err, userMissing)
	}
	return c.JSON(user)
}

// Delete removes inactive, non-superuser accounts only.
func (uc *UserController) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	st := StoreOf(c)
	ctx := c.UserContext()

	user, err := st.GetUser(ctx, id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	if user.IsActive {
		return apperr.NotFound("Acive user cannot be removed")
	}
	if user.IsSuperuser {
		return apperr.NotFound("Superuser cannot be removed")
	}

	remove := st.DeleteUser
	if uc.Remove != nil {
		remove = uc.Remove
	}
	user, err = remove(ctx, id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(user)
}

func (uc *UserController) ListByRole(c *fiber.Ctx) error {
	role := c.Params("rolname")
	if !models.IsRole(role) {
		return apperr.NotFound("role not set")
	}
	p, err := listParams(c, store.UserColumns)
	if err != nil {
		return err
	}
	users, total, err := StoreOf(c).ListUsers(c.UserContext(), p, []string{role})
	if err != nil {
		return err
	}
	return sendList(c, p, users, total)
}

func (uc *UserController) UpdateByRole(c *fiber.Ctx) error {
	return uc.Update(c)
}
