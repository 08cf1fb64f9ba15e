package mockbackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

// defaultInterval is the time-series bucket width when none is requested.
const defaultInterval = 60

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, detailResponse{Detail: msg})
}

// readCredentials accepts a JSON body or an OAuth2 password form.
func readCredentials(r *http.Request) (domain.Credentials, error) {
	var creds domain.Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return creds, err
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
		return creds, nil
	}
	err := json.NewDecoder(r.Body).Decode(&creds)
	return creds, err
}

// --- Auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := creds.RequireFields(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.Users.Authenticate(creds); err != nil {
		if errors.Is(err, ErrRateLimitExceeded) {
			writeDetail(w, http.StatusTooManyRequests, "Too many failed login attempts")
			return
		}
		s.logger.Warn("Login failed", "user", creds.Username, "remote", r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	tokens, err := s.Tokens.Issue(strings.TrimSpace(creds.Username))
	if err != nil {
		s.logger.Error("Token signing failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.logger.Info("User logged in", "user", creds.Username)
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := creds.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.Users.Register(creds); err != nil {
		if errors.Is(err, ErrUserExists) {
			writeDetail(w, http.StatusBadRequest, "Username already registered")
			return
		}
		s.logger.Error("Signup failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	tokens, err := s.Tokens.Issue(strings.TrimSpace(creds.Username))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.logger.Info("User registered", "user", creds.Username)
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	claims, err := s.Tokens.Validate(body.RefreshToken, kindRefresh)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	tokens, err := s.Tokens.IssueAccess(claims.Subject)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	tokens.RefreshToken = body.RefreshToken
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims != nil {
		s.Tokens.Revoke(claims)
		s.logger.Info("User logged out", "user", claims.Subject)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, domain.User{Username: claims.Subject})
}

// --- Query ---

type envelope struct {
	Data     any `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// parseQuery reads the query string into a descriptor. Both start/end and
// start_time/end_time are accepted.
func parseQuery(kind domain.QueryKind, r *http.Request) (domain.QueryParams, error) {
	q := r.URL.Query()
	params := domain.QueryParams{Kind: kind, Page: 1, PageSize: domain.DefaultPageSize}

	intParam := func(names ...string) (int, bool, error) {
		for _, name := range names {
			if v := q.Get(name); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return 0, true, fmt.Errorf("%s must be an integer", name)
				}
				return n, true, nil
			}
		}
		return 0, false, nil
	}
	floatParam := func(names ...string) (float64, error) {
		for _, name := range names {
			if v := q.Get(name); v != "" {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return 0, fmt.Errorf("%s must be a number", name)
				}
				return f, nil
			}
		}
		return 0, nil
	}

	page, ok, err := intParam(domain.ParamPage)
	if err != nil {
		return params, err
	}
	if ok {
		params.Page = page
	}
	size, ok, err := intParam(domain.ParamPageSize)
	if err != nil {
		return params, err
	}
	if ok {
		params.PageSize = size
	}
	if params.TimeRange.Start, err = floatParam(domain.ParamStart, "start_time"); err != nil {
		return params, err
	}
	if params.TimeRange.End, err = floatParam(domain.ParamEnd, "end_time"); err != nil {
		return params, err
	}
	if params.Port, _, err = intParam(domain.ParamPort); err != nil {
		return params, err
	}
	if params.Interval, _, err = intParam(domain.ParamInterval); err != nil {
		return params, err
	}
	params.IPAddress = q.Get(domain.ParamIPAddress)
	params.Protocol = q.Get(domain.ParamProtocol)
	params.Region = q.Get(domain.ParamRegion)

	return params, params.Validate()
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseQueryKind(mux.Vars(r)["kind"])
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	params, err := parseQuery(kind, r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	inRange := s.Data.Filter(RecordFilter{TimeRange: params.TimeRange})
	resp := envelope{Page: params.Page, PageSize: params.PageSize}

	switch kind {
	case domain.QueryTrafficSummary:
		resp.Data, resp.Total = Summary(inRange, params.TimeRange), 1
	case domain.QueryProtocolDistribution:
		resp.Data = domain.ProtocolDistribution{
			Distribution: Distribution(inRange),
			TimeRange:    rangePtr(params.TimeRange),
		}
		resp.Total = 1
	case domain.QueryProtocolAnalysis:
		items := Analysis(inRange, params.Protocol)
		resp.Data, resp.Total = paginate(items, params.Page, params.PageSize), len(items)
	case domain.QueryTopSourceIPs:
		items := TopSources(inRange)
		resp.Data, resp.Total = paginate(items, params.Page, params.PageSize), len(items)
	case domain.QueryTimeSeries:
		interval := params.Interval
		if interval == 0 {
			interval = defaultInterval
		}
		items, err := Series(inRange, params.TimeRange, interval)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.Data, resp.Total = paginate(items, params.Page, params.PageSize), len(items)
	default:
		records := s.Data.Filter(RecordFilter{
			TimeRange: params.TimeRange,
			IPAddress: params.IPAddress,
			Protocol:  params.Protocol,
			Port:      params.Port,
			Region:    params.Region,
		})
		resp.Data, resp.Total = paginate(records, params.Page, params.PageSize), len(records)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Config ---

func (s *Server) handleGetInterfaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.Interfaces())
}

func (s *Server) handleSetInterface(w http.ResponseWriter, r *http.Request) {
	var sel domain.InterfaceSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil || sel.Validate() != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to set interface")
		return
	}
	if err := s.Config.SelectInterface(sel.Interface); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to set interface")
		return
	}
	s.logger.Info("Capture interface selected", "interface", sel.Interface)
	writeJSON(w, http.StatusOK, sel.Interface)
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.Rules())
}

func (s *Server) handleUpsertRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.ProtocolPortRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to update rule")
		return
	}
	if err := s.Config.UpsertRule(rule); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to update rule")
		return
	}
	writeJSON(w, http.StatusOK, s.Config.Rules())
}

func (s *Server) handleRemoveRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.ProtocolPortRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to remove rule")
		return
	}
	if err := s.Config.RemoveRule(rule); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to remove rule")
		return
	}
	writeJSON(w, http.StatusOK, s.Config.Rules())
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.Filters())
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var filters []domain.CaptureFilter
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to set filters")
		return
	}
	if err := s.Config.SetFilters(filters); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to set filters")
		return
	}
	s.logger.Info("Capture filters replaced", "count", len(filters), "bpf", domain.BuildBPF(filters))
	writeJSON(w, http.StatusOK, s.Config.Filters())
}

// --- Capture ---

func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	status := domain.CaptureAlreadyStarted
	if s.Config.StartCapture(s.now()) {
		status = domain.CaptureStarted
		s.logger.Info("Capture started")
	}
	writeJSON(w, http.StatusOK, domain.CaptureAck{Status: status})
}

func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	status := domain.CaptureAlreadyStopped
	if s.Config.StopCapture() {
		status = domain.CaptureStopped
		s.logger.Info("Capture stopped")
	}
	writeJSON(w, http.StatusOK, domain.CaptureAck{Status: status})
}

func (s *Server) handleCaptureStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.Capture(s.now()))
}
