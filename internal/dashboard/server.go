package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ETFDesk/internal/analysis"
	"ETFDesk/internal/calculator"
	"ETFDesk/internal/session"
)

// DefaultCode pre-fills the input for a new session.
const DefaultCode = "510300"

const sessionCookie = "etfdesk_sid"

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))
	val      = validator.New(validator.WithRequiredStructEnabled())
)

// Server is the web dashboard plus a small JSON API.
type Server struct {
	App      *fiber.App
	Service  *analysis.Service
	Sessions *session.Store
	Bands    calculator.BandParams
}

// New builds the fiber app and registers all routes. A nil gatherer disables /metrics.
func New(svc *analysis.Service, sessions *session.Store, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		Service:  svc,
		Sessions: sessions,
		Bands:    svc.Bands,
	}
	s.App = fiber.New(fiber.Config{
		AppName:               "etfdesk",
		ErrorHandler:          ErrHandler,
		DisableStartupMessage: true,
	})

	s.App.Get("/", s.getIndex)
	s.App.Post("/analyze", s.postAnalyze)
	s.App.Get("/api/analyze", s.getAPIAnalyze)
	s.App.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	if gatherer != nil {
		s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	zap.L().Info("serve dashboard", zap.String("addr", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

func (s *Server) sessionID(c *fiber.Ctx) string {
	id := c.Cookies(sessionCookie)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return id
}

// getIndex shows the form. A ?code= link only re-populates the input.
func (s *Server) getIndex(c *fiber.Ctx) error {
	type IndexArgs struct {
		Code string `query:"code" validate:"omitempty,max=16"`
	}
	var args = new(IndexArgs)
	if err := VerifyArg(c, args, ArgQuery); err != nil {
		return err
	}

	id := s.sessionID(c)
	st := s.Sessions.Get(id)
	if code := strings.TrimSpace(args.Code); code != "" {
		st.Current = code
		s.Sessions.Put(id, st)
	}
	code := st.Current
	if code == "" {
		code = DefaultCode
	}
	return render(c, page{Code: code, History: st.History})
}

// postAnalyze is the only route that fetches and computes.
func (s *Server) postAnalyze(c *fiber.Ctx) error {
	type AnalyzeArgs struct {
		Code string `form:"code" validate:"max=16"`
	}
	var args = new(AnalyzeArgs)
	if err := VerifyArg(c, args, ArgBody); err != nil {
		return err
	}

	id := s.sessionID(c)
	st, v := s.Service.Handle(c.UserContext(), s.Sessions.Get(id), args.Code)
	s.Sessions.Put(id, st)
	return render(c, newPage(v, st.History, s.Bands))
}

func (s *Server) getAPIAnalyze(c *fiber.Ctx) error {
	type APIArgs struct {
		Code string `query:"code" validate:"required,max=16"`
	}
	var args = new(APIArgs)
	if err := VerifyArg(c, args, ArgQuery); err != nil {
		return err
	}

	a, err := s.Service.Run(c.UserContext(), args.Code)
	if err != nil {
		kind := analysis.KindOf(err)
		return c.Status(statusOf(kind)).JSON(apiError{Kind: kind, Message: analysis.ErrorMessage(err)})
	}
	return c.JSON(fiber.Map{"data": newAPIAnalysis(a)})
}

func statusOf(k analysis.Kind) int {
	switch k {
	case analysis.KindInvalidCode:
		return fiber.StatusBadRequest
	case analysis.KindInsufficientHistory:
		return fiber.StatusUnprocessableEntity
	case analysis.KindNetwork, analysis.KindUpstreamFormat:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func render(c *fiber.Ctx, pg page) error {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, pg); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

const (
	ArgQuery = 1
	ArgBody  = 2
)

// BadFields lists request fields that failed validation.
type BadFields struct {
	Items []string
}

func (f *BadFields) Error() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.Items, ", ")
}

// VerifyArg parses the query or body into out and validates its struct tags.
func VerifyArg(c *fiber.Ctx, out interface{}, from int) error {
	var err error
	switch from {
	case ArgQuery:
		err = c.QueryParser(out)
	case ArgBody:
		err = c.BodyParser(out)
	default:
		return fmt.Errorf("unsupported arg source: %v", from)
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := val.Struct(out); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		bad := &BadFields{}
		for _, fe := range ve {
			bad.Items = append(bad.Items, fmt.Sprintf("[%s]: '%v', must %s", fe.Field(), fe.Value(), fe.Tag()))
		}
		return bad
	}
	return nil
}

// ErrHandler turns handler errors into plain-text responses.
func ErrHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fieldErr *BadFields
	var fe *fiber.Error
	if errors.As(err, &fieldErr) {
		code = fiber.StatusBadRequest
	} else if errors.As(err, &fe) {
		code = fe.Code
	}

	fields := []zap.Field{zap.String("m", c.Method()), zap.String("url", c.OriginalURL()), zap.Error(err)}
	if code == fiber.StatusInternalServerError {
		zap.L().Warn("server error", fields...)
	} else {
		zap.L().Info("req fail", fields...)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(err.Error())
}
