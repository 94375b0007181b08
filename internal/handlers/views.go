package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"homedash/internal/chart"
	"homedash/internal/models"
	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var viewFS embed.FS

const displayLayout = "02/01/2006 15:04:05"

func parseViews() *template.Template {
	return template.Must(template.New("views").Funcs(template.FuncMap{
		"num": formatNumber,
	}).ParseFS(viewFS, "templates/*.html"))
}

// formatNumber prints a nullable measurement with one decimal.
func formatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

// localTime renders a measurement key in the display timezone.
func (h *Handler) localTime(key string) string {
	t, err := time.Parse(models.KeyLayout, key)
	if err != nil {
		return key
	}
	return t.In(h.opts.Location).Format(displayLayout)
}

type loginView struct {
	Email string
	Error string
	Info  string
}

type readingView struct {
	At              string
	InsideTemp      string
	InsideHumidity  string
	OutsideTemp     string
	OutsideHumidity string
}

type dashboardView struct {
	UID         string
	HomeID      string
	Latest      *readingView
	Lamp        models.LampCommand
	NextLamp    string
	LogPeriod   int
	Message     string
	Error       string
	LookupInput string
	Lookup      *readingView
	LookupError string
	Timezone    string
}

type chartView struct {
	SVG   template.HTML
	Chart chart.Chart
}

type graphsView struct {
	HomeID      string
	Count       int
	Temperature chartView
	Humidity    chartView
}

func (h *Handler) reading(p models.GraphPoint) *readingView {
	return &readingView{
		At:              h.localTime(p.Timestamp),
		InsideTemp:      formatNumber(p.InsideTemp),
		InsideHumidity:  formatNumber(p.InsideHumidity),
		OutsideTemp:     formatNumber(p.OutsideTemp),
		OutsideHumidity: formatNumber(p.OutsideHumidity),
	}
}

func (h *Handler) indexPage(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) loginPage(c *gin.Context) {
	if token, err := c.Cookie(h.opts.CookieName); err == nil && token != "" {
		if _, err := h.services.ParseToken(c.Request.Context(), token); err == nil {
			c.Redirect(http.StatusSeeOther, "/dashboard")
			return
		}
	}
	c.HTML(http.StatusOK, "login.html", loginView{})
}

func (h *Handler) loginSubmit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	token, err := h.services.GenerateToken(email, c.PostForm("password"))
	if err != nil {
		if h.log != nil {
			h.log.Infow("view_sign_in_failed", "email", email, "err", err)
		}
		c.HTML(http.StatusUnauthorized, "login.html", loginView{Email: email, Error: msgLoginFailed})
		return
	}
	h.setSessionCookie(c, token)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) signupSubmit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	if _, err := h.services.SignUp(email, password); err != nil {
		if h.log != nil {
			h.log.Infow("view_sign_up_failed", "email", email, "err", err)
		}
		c.HTML(statusFor(err), "login.html", loginView{Email: email, Error: userMessage(err)})
		return
	}
	token, err := h.services.GenerateToken(email, password)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("view_sign_in_after_sign_up_failed", "email", email, "err", err)
		}
		c.HTML(http.StatusInternalServerError, "login.html", loginView{Email: email, Error: msgGenericFailed})
		return
	}
	h.setSessionCookie(c, token)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) resetSubmit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		c.HTML(http.StatusBadRequest, "login.html", loginView{Error: msgEmailFirst})
		return
	}
	if err := h.services.ResetPassword(c.Request.Context(), email); err != nil {
		if statusFor(err) == http.StatusInternalServerError && h.log != nil {
			h.log.Errorw("view_reset_failed", "err", err)
		}
		c.HTML(statusFor(err), "login.html", loginView{Email: email, Error: userMessage(err)})
		return
	}
	c.HTML(http.StatusOK, "login.html", loginView{Email: email, Info: msgResetSent})
}

func (h *Handler) logoutSubmit(c *gin.Context) {
	if token, err := c.Cookie(h.opts.CookieName); err == nil && token != "" {
		if err := h.services.SignOut(c.Request.Context(), token); err != nil && h.log != nil {
			h.log.Infow("view_sign_out_failed", "err", err)
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) dashboardPage(c *gin.Context) {
	v := dashboardView{LookupInput: strings.TrimSpace(c.Query("at"))}
	if v.LookupInput != "" {
		release, ok := h.viewClaim(c, service.ControlLookup)
		if !ok {
			return
		}
		defer release()
	}
	h.renderDashboard(c, http.StatusOK, v)
}

// renderDashboard fills the home data into v and renders it. A lookup is
// run when v.LookupInput is set.
func (h *Handler) renderDashboard(c *gin.Context, code int, v dashboardView) {
	ctx := c.Request.Context()
	v.UID = c.GetString(ctxUserID)
	v.Timezone = h.opts.Location.String()

	homeID, err := h.services.Resolve(ctx, v.UID)
	if err != nil {
		h.logViewError("view_home_resolve_failed", err, v.UID)
		v.Error = msgLoadFailed
		c.HTML(http.StatusInternalServerError, "dashboard.html", v)
		return
	}
	v.HomeID = homeID
	if homeID == "" {
		c.HTML(code, "dashboard.html", v)
		return
	}

	if p, ok, err := h.services.Latest(ctx, homeID); err != nil {
		h.logViewError("view_latest_failed", err, v.UID)
		v.Error = msgLoadFailed
	} else if ok {
		v.Latest = h.reading(p)
	}
	if v.Lamp, err = h.services.State(ctx, homeID); err != nil {
		h.logViewError("view_lamp_failed", err, v.UID)
		v.Error = msgLoadFailed
	}
	v.NextLamp = models.Flip(v.Lamp.State)
	if v.LogPeriod, err = h.services.LogPeriod(ctx, homeID); err != nil {
		h.logViewError("view_settings_failed", err, v.UID)
		v.Error = msgLoadFailed
	}

	if v.LookupInput != "" {
		res, err := h.services.LookupAt(ctx, homeID, v.LookupInput, h.opts.Location)
		switch {
		case err != nil:
			v.LookupError = userMessage(err)
		case !res.Found:
			v.LookupError = msgNotFound
		default:
			v.Lookup = h.reading(res.Point)
		}
	}

	c.HTML(code, "dashboard.html", v)
}

func (h *Handler) logViewError(key string, err error, uid string) {
	if h.log != nil {
		h.log.Errorw(key, "err", err, "uid", uid)
	}
}

// viewClaim takes the busy slot for a form submission.
func (h *Handler) viewClaim(c *gin.Context, control string) (func(), bool) {
	if h.services.Busy == nil {
		return func() {}, true
	}
	release, err := h.services.Busy.Try(c.GetString(ctxUserID), control)
	if err != nil {
		h.renderDashboard(c, http.StatusConflict, dashboardView{Error: userMessage(err)})
		return nil, false
	}
	return release, true
}

func (h *Handler) dashboardHome(c *gin.Context) {
	release, ok := h.viewClaim(c, service.ControlHome)
	if !ok {
		return
	}
	defer release()

	homeID, err := h.services.Associate(c.Request.Context(), c.GetString(ctxUserID), c.PostForm("home_id"))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logViewError("view_home_bind_failed", err, c.GetString(ctxUserID))
		}
		h.renderDashboard(c, statusFor(err), dashboardView{Error: userMessage(err)})
		return
	}
	h.renderDashboard(c, http.StatusOK, dashboardView{Message: "Maison associée : " + homeID})
}

// homeForView resolves the bound home or renders the dashboard with a hint.
func (h *Handler) homeForView(c *gin.Context) (string, bool) {
	homeID, err := h.services.Resolve(c.Request.Context(), c.GetString(ctxUserID))
	if err == nil && homeID == "" {
		err = service.ErrHomeNotBound
	}
	if err != nil {
		h.renderDashboard(c, statusFor(err), dashboardView{Error: userMessage(err)})
		return "", false
	}
	return homeID, true
}

func (h *Handler) dashboardSettings(c *gin.Context) {
	homeID, ok := h.homeForView(c)
	if !ok {
		return
	}
	release, ok := h.viewClaim(c, service.ControlSettings)
	if !ok {
		return
	}
	defer release()

	sec, err := h.services.SetLogPeriod(c.Request.Context(), homeID, c.PostForm("log_period_sec"))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logViewError("view_settings_save_failed", err, c.GetString(ctxUserID))
		}
		h.renderDashboard(c, statusFor(err), dashboardView{Error: userMessage(err)})
		return
	}
	h.renderDashboard(c, http.StatusOK, dashboardView{Message: fmt.Sprintf("Fréquence enregistrée : %d s", sec)})
}

func (h *Handler) dashboardLamp(c *gin.Context) {
	homeID, ok := h.homeForView(c)
	if !ok {
		return
	}
	release, ok := h.viewClaim(c, service.ControlLamp)
	if !ok {
		return
	}
	defer release()

	cmd, err := h.services.Toggle(c.Request.Context(), homeID)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logViewError("view_lamp_toggle_failed", err, c.GetString(ctxUserID))
		}
		h.renderDashboard(c, statusFor(err), dashboardView{Error: userMessage(err)})
		return
	}
	h.renderDashboard(c, http.StatusOK, dashboardView{Message: "Lampe : " + cmd.State})
}

func (h *Handler) graphsPage(c *gin.Context) {
	homeID, ok := h.homeForView(c)
	if !ok {
		return
	}
	pts, err := h.services.History(c.Request.Context(), homeID, h.opts.HistoryLimit, h.opts.MaxPoints)
	if err != nil {
		h.logViewError("view_history_failed", err, c.GetString(ctxUserID))
		h.renderDashboard(c, http.StatusInternalServerError, dashboardView{Error: msgLoadFailed})
		return
	}

	c.HTML(http.StatusOK, "graphs.html", graphsView{
		HomeID:      homeID,
		Count:       len(pts),
		Temperature: renderChartView(chart.TemperatureChart(pts, h.opts.ChartWidth, h.opts.ChartHeight)),
		Humidity:    renderChartView(chart.HumidityChart(pts, h.opts.ChartWidth, h.opts.ChartHeight)),
	})
}

func renderChartView(ch chart.Chart) chartView {
	// RenderSVG escapes every text it emits
	return chartView{SVG: template.HTML(chart.RenderSVG(ch)), Chart: ch}
}
