package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// RegisterAuthRoutes mounts the auth endpoints on a fiber app.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	app.Post(controller.Routes.Signup, controller.SignupPost).Name("signup.post")
	app.Get(fmt.Sprintf("%s/:token", controller.Routes.Verify), controller.VerifyGet).Name("verify.get")
	app.Post(controller.Routes.Login, controller.LoginPost).Name("login.post")
}

type AuthControllerRoutes struct {
	Signup string
	Verify string
	Login  string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Routes *AuthControllerRoutes
	Signup *SignupHandler
	Verify *VerifyAccountHandler
	Auther Authenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithSignupHandler(h *SignupHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Signup = h
		return c
	}
}

func WithVerifyHandler(h *VerifyAccountHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Verify = h
		return c
	}
}

func WithAuthenticator(a Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Signup: "/signup",
			Verify: "/verify",
			Login:  "/login",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Signup == nil {
		panic("Missing SignupHandler in auth controller...")
	}

	if c.Verify == nil {
		panic("Missing VerifyAccountHandler in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// APIResponse is the envelope every auth endpoint returns
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
	Token   string            `json:"token,omitempty"`
}

func (a *AuthController) SignupPost(c *fiber.Ctx) error {
	payload := new(SignupPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(APIResponse{
			Success: false,
			Message: "Could not parse request body.",
		})
	}

	if a.Debug {
		a.Logger.Debug("signup payload", "payload", print.MaybePrettyJSON(payload))
	}

	msg := SignupMessage{SignupPayload: *payload}

	if err := a.Signup.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(APIResponse{
		Success: true,
		Message: "Account created. Check your email to verify your account.",
	})
}

func (a *AuthController) VerifyGet(c *fiber.Ctx) error {
	msg := VerifyAccountMessage{Token: c.Params("token")}

	if err := a.Verify.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(APIResponse{
		Success: true,
		Message: "Account verified. You can log in now.",
	})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(APIResponse{
			Success: false,
			Message: "Could not parse request body.",
		})
	}

	payload.Normalize()

	if err := payload.Validate(); err != nil {
		return a.renderError(c, WrapValidationErrors(err))
	}

	var token string
	var err error

	if payload.IsOAuth() {
		token, err = a.Auther.LoginOAuth(c.UserContext(), payload.OAuthProvider, payload.OAuthID)
	} else {
		token, err = a.Auther.Login(c.UserContext(), payload.Identifier(), payload.Password)
	}

	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(APIResponse{
		Success: true,
		Message: "Logged in.",
		Token:   token,
	})
}

// renderError maps structured errors onto the response envelope.
// Internal failures never leak details, the cause is logged and the
// client gets a generic message.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unhandled error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(APIResponse{
			Success: false,
			Message: "Internal server error.",
		})
	}

	status := statusFromError(richErr)
	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("internal error", "error", richErr)
		return c.Status(status).JSON(APIResponse{
			Success: false,
			Message: "Internal server error.",
		})
	}

	resp := APIResponse{
		Success: false,
		Message: clientMessage(richErr),
	}

	if richErr.TextCode == TextCodeValidationFailed {
		resp.Error = fieldErrors(richErr)
	}

	return c.Status(status).JSON(resp)
}

func statusFromError(err *goerrors.Error) int {
	switch err.Category {
	case goerrors.CategoryInternal, goerrors.CategoryOperation:
		return fiber.StatusInternalServerError
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	case goerrors.CategoryAuth:
		if err.TextCode == TextCodeInvalidCreds || err.TextCode == "" {
			return fiber.StatusUnauthorized
		}
		return fiber.StatusBadRequest
	case goerrors.CategoryNotFound:
		if err.TextCode == TextCodeInvalidCreds {
			return fiber.StatusUnauthorized
		}
		return fiber.StatusBadRequest
	default:
		return fiber.StatusBadRequest
	}
}

func clientMessage(err *goerrors.Error) string {
	switch err.TextCode {
	case TextCodeValidationFailed:
		return "Invalid submission."
	case TextCodeUsernameTaken:
		return "Username is already taken."
	case TextCodeEmailTaken:
		return "Email is already registered."
	case TextCodeMissingToken:
		return "Token not provided"
	case TextCodeTokenExpired:
		return "Token expired."
	case TextCodeInvalidToken:
		return "Invalid token."
	case TextCodeInvalidPayload:
		return "Invalid payload"
	case TextCodeInvalidCreds:
		return "Invalid credentials."
	case TextCodeTooManyAttempts:
		return "Too many attempts. Try again later."
	default:
		return "Request failed."
	}
}

func fieldErrors(err *goerrors.Error) map[string]string {
	if err.Metadata == nil {
		return nil
	}

	fields, ok := err.Metadata["fields"].(map[string]string)
	if !ok {
		return nil
	}

	return fields
}
