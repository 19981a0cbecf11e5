package controllers

import (
	"github.com/gofiber/fiber/v2"

	"study-backend/apperr"
	"study-backend/listparams"
	"study-backend/models"
	"study-backend/store"
)

// StudyGroupController serves both group ciphers and the group/discipline
// rows keyed by them.
type StudyGroupController struct{}

func NewStudyGroupController() *StudyGroupController {
	return &StudyGroupController{}
}

func cipherParam(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if id == "" {
		return "", apperr.Unprocessable("id: field required")
	}
	return id, nil
}

func (sc *StudyGroupController) ListCiphers(c *fiber.Ctx) error {
	p, err := listParams(c, store.StudyGroupCipherColumns)
	if err != nil {
		return err
	}
	items, total, err := StoreOf(c).ListStudyGroupCiphers(c.UserContext(), p)
	if err != nil {
		return err
	}
	return sendList(c, p, items, total)
}

func (sc *StudyGroupController) CreateCipher(c *fiber.Ctx) error {
	var in models.StudyGroupCipherCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	g, err := StoreOf(c).CreateStudyGroupCipher(c.UserContext(), in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(g)
}

func (sc *StudyGroupController) ReadCipher(c *fiber.Ctx) error {
	id, err := cipherParam(c)
	if err != nil {
		return err
	}
	g, err := StoreOf(c).GetStudyGroupCipher(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(g)
}

func (sc *StudyGroupController) UpdateCipher(c *fiber.Ctx) error {
	id, err := cipherParam(c)
	if err != nil {
		return err
	}
	var in models.StudyGroupCipherUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	g, err := StoreOf(c).UpdateStudyGroupCipher(c.UserContext(), id, in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(g)
}

func (sc *StudyGroupController) DeleteCipher(c *fiber.Ctx) error {
	id, err := cipherParam(c)
	if err != nil {
		return err
	}
	g, err := StoreOf(c).DeleteStudyGroupCipher(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(g)
}

func (sc *StudyGroupController) List(c *fiber.Ctx) error {
	p, err := listParams(c, store.StudyGroupColumns)
	if err != nil {
		return err
	}
	items, total, err := StoreOf(c).ListStudyGroups(c.UserContext(), p)
	if err != nil {
		return err
	}
	return sendList(c, p, items, total)
}

// Create assigns each listed discipline to the group, creating the cipher
// when it does not exist yet.
func (sc *StudyGroupController) Create(c *fiber.Ctx) error {
	var in models.StudyGroupCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	rows, err := StoreOf(c).CreateStudyGroupWithDisciplines(c.UserContext(), in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return sendList(c, listparams.Default(), rows, len(rows))
}

func (sc *StudyGroupController) Read(c *fiber.Ctx) error {
	id, err := cipherParam(c)
	if err != nil {
		return err
	}
	rows, err := StoreOf(c).ListStudyGroupsByCipher(c.UserContext(), id)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return apperr.NotFound(itemNotFound)
	}
	return sendList(c, listparams.Default(), rows, len(rows))
}

func (sc *StudyGroupController) Delete(c *fiber.Ctx) error {
	id, err := cipherParam(c)
	if err != nil {
		return err
	}
	disciplineID, err := idParam(c, "discipline_id")
	if err != nil {
		return err
	}
	g, err := StoreOf(c).DeleteStudyGroup(c.UserContext(), id, disciplineID)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(g)
}
