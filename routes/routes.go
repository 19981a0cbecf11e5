// Package routes builds the fiber application and mounts the API.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"study-backend/apperr"
	"study-backend/auth"
	"study-backend/config"
	"study-backend/controllers"
	"study-backend/eventhandlers"
	"study-backend/logger"
	"study-backend/metrics"
	"study-backend/services"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Config     *config.Config
	Log        zerolog.Logger
	Store      controllers.Store
	Tokens     *auth.TokenManager
	Sessions   controllers.SessionOpener
	RemoveUser controllers.UserRemover
	Events     *eventhandlers.Publisher
	Users      *services.UserService
	Reports    *services.ReportService
}

// New returns the configured app with every route registered.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      d.Config.Version(),
		ErrorHandler: apperr.Handler(d.Log),
		ProxyHeader:  fiber.HeaderXForwardedFor,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: d.Config.Debug}))
	app.Use(requestid.New())
	app.Use(metrics.Middleware())
	app.Use(logger.Middleware(d.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  d.Config.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Range",
	}))

	app.Get("/metrics", metrics.Handler())

	Register(app.Group(d.Config.APIV1Str), d)
	return app
}

// Register mounts the API handlers on r.
func Register(r fiber.Router, d Deps) {
	a := controllers.NewAuth(d.Tokens, d.Store, d.Sessions, d.Log)
	authed := []fiber.Handler{a.RequireUser, controllers.RequireActive}
	su := controllers.RequireSuperuser

	health := controllers.NewHealthController(d.Store, d.Config.ProjectName, d.Config.ImageVersion, d.Log)
	r.Get("/health", health.Health)

	lc := controllers.NewLoginController(d.Tokens, d.Users, d.Store)
	login := r.Group("/login")
	login.Post("/access-token", lc.AccessToken)
	login.Post("/test-token", append(authed, lc.TestToken)...)

	uc := controllers.NewUserController(d.Users, d.Reports, d.Events, d.RemoveUser)
	users := r.Group("/users", authed...)
	users.Get("/", uc.List)
	users.Post("/", uc.Create)
	users.Get("/me", uc.ReadMe)
	users.Put("/me", uc.UpdateMe)
	users.Post("/report", su, uc.Report)
	users.Get("/role/:rolname", uc.ListByRole)
	users.Put("/role/:rolname/:id", su, uc.UpdateByRole)
	users.Get("/:id", uc.Read)
	users.Put("/:id", su, uc.Update)
	users.Delete("/:id", uc.Delete)

	dc := controllers.NewDisciplineController()
	disciplines := r.Group("/disciplines", authed...)
	disciplines.Get("/", dc.List)
	disciplines.Post("/", dc.Create)
	disciplines.Get("/:id", dc.Read)
	disciplines.Put("/:id", dc.Update)
	disciplines.Delete("/:id", dc.Delete)

	sc := controllers.NewStudyGroupController()
	ciphers := r.Group("/study-group-ciphers", authed...)
	ciphers.Get("/", sc.ListCiphers)
	ciphers.Post("/", sc.CreateCipher)
	ciphers.Get("/:id", sc.ReadCipher)
	ciphers.Put("/:id", sc.UpdateCipher)
	ciphers.Delete("/:id", sc.DeleteCipher)

	groups := r.Group("/study-groups", authed...)
	groups.Get("/", sc.List)
	groups.Post("/", sc.Create)
	groups.Get("/:id", sc.Read)
	groups.Delete("/:id/:discipline_id", sc.Delete)

	tc := controllers.NewTaskController()
	tasks := r.Group("/tasks", authed...)
	tasks.Get("/", tc.List)
	tasks.Post("/", tc.Create)
	tasks.Get("/:id", tc.Read)
	tasks.Put("/:id", tc.Update)
	tasks.Delete("/:id", tc.Delete)

	gc := controllers.NewStudyGroupTaskController()
	groupTasks := r.Group("/study-group-tasks", authed...)
	groupTasks.Get("/", gc.List)
	groupTasks.Post("/", gc.Create)
	groupTasks.Get("/:id", gc.Read)
	groupTasks.Put("/:id", gc.Update)
	groupTasks.Delete("/:id", gc.Delete)

	tsc := controllers.NewTaskStudentController(d.Events)
	taskStudents := r.Group("/task-students", authed...)
	taskStudents.Get("/", tsc.List)
	taskStudents.Post("/", tsc.Create)
	taskStudents.Get("/:id", tsc.Read)
	taskStudents.Put("/:id", tsc.Update)
	taskStudents.Delete("/:id", tsc.Delete)
}
