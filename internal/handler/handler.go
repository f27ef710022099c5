package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/repository"
)

const tokenCookieName = "__ecnc_seating_planner_token"

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	channel     *amqp.Channel // 邮件队列和实验队列共用
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, ch *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		channel:     ch,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/relationship-sheets", func(r chi.Router) {
			r.Post("/", h.CreateRelationshipSheet)
			r.Get("/", h.GetAllRelationshipSheets)
			r.Post("/generate", h.GenerateRelationshipSheet)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.relationshipSheet)
				r.Get("/", h.GetRelationshipSheet)
				r.Get("/export", h.ExportRelationshipSheet)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteRelationshipSheet)
				r.Route("/seating-plans", func(r chi.Router) {
					r.Post("/", h.GenerateSeatingPlan)
					r.Get("/", h.GetSeatingPlansOfSheet)
				})
			})
		})

		r.With(h.seatingPlan).Get("/seating-plans/{id}", h.GetSeatingPlan)

		r.Route("/experiments", func(r chi.Router) {
			r.Post("/", h.CreateExperiment)
			r.Get("/", h.GetAllExperiments)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.experiment)
				r.Get("/", h.GetExperiment)
				r.Get("/progress", h.GetExperimentProgress)
				r.Get("/summary", h.GetExperimentSummary)
				r.Get("/export", h.ExportExperiment)
			})
		})
	})
}
