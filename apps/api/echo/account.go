package echoapi

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mawazo/shule/core"
	"github.com/mawazo/shule/core/account"
)

type accountApi struct {
	svc        account.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
	conf       *core.Config
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := accountApi{
		svc:        deps.AccountSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
		conf:       deps.Conf,
	}

	ag := g.Group("/accounts")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
}

type (
	LoginRequest struct {
		Email    string       `json:"email" validate:"required,email"`
		Password string       `json:"password" validate:"required"`
		Role     account.Role `json:"role" validate:"required,role"`
	}

	LoginResponse struct {
		User      account.Summary `json:"user"`
		Token     string          `json:"token"`
		ExpiresIn int64           `json:"expires_in"` // seconds
	}
)

// Handlers

// register creates an account plus its role profile. The payload shape depends
// on the role field, so the body is read once, the role peeked, and the bytes
// re-decoded into the role's registration payload.
func (api *accountApi) register(ctx echo.Context) error {
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}

	var peek struct {
		Role account.Role `json:"role"`
	}
	if err = json.Unmarshal(body, &peek); err != nil {
		return core.NewValidationError(errors.New("malformed request body"))
	}

	reg, err := account.NewRegistration(peek.Role)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, reg); err != nil {
		return core.NewValidationError(errors.New("malformed request body"))
	}
	if err = account.ValidateRegistration(reg, api.validate); err != nil {
		return err
	}

	summary, err := api.svc.Register(ctx.Request().Context(), reg)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}

	return ctx.JSON(http.StatusCreated, summary)
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return core.NewValidationError(errors.New("malformed request body"))
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	summary, token, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password, data.Role)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	setAuthCookie(ctx, token, api.conf)

	return ctx.JSON(http.StatusOK, LoginResponse{
		User:      summary,
		Token:     token,
		ExpiresIn: int64(api.conf.Server.JWTExpirationDelta.Seconds()),
	})
}

func (api *accountApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	summary, err := api.svc.GetSummary(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting account summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}
