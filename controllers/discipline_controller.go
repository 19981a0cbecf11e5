package controllers

import (
	"github.com/gofiber/fiber/v2"

	"study-backend/models"
	"study-backend/store"
)

type DisciplineController struct{}

func NewDisciplineController() *DisciplineController {
	return &DisciplineController{}
}

func (dc *DisciplineController) List(c *fiber.Ctx) error {
	p, err := listParams(c, store.DisciplineColumns)
	if err != nil {
		return err
	}
	items, total, err := StoreOf(c).ListDisciplines(c.UserContext(), p)
	if err != nil {
		return err
	}
	return sendList(c, p, items, total)
}

func (dc *DisciplineController) Create(c *fiber.Ctx) error {
	var in models.DisciplineCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	d, err := StoreOf(c).CreateDiscipline(c.UserContext(), in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(d)
}

func (dc *DisciplineController) Read(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	d, err := StoreOf(c).GetDiscipline(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(d)
}

func (dc *DisciplineController) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in models.DisciplineUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	d, err := StoreOf(c).UpdateDiscipline(c.UserContext(), id, in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(d)
}

func (dc *DisciplineController) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	d, err := StoreOf(c).DeleteDiscipline(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(d)
}
