// Package freelancer provides a Go client for the freelancer messaging
// API, covering the HTTP surface and the realtime websocket.
package freelancer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client is an API client. Token is set by Signup/Signin and sent as a
// bearer token on every authenticated call.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8002"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Message is one chat message.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Thread is a room's history.
type Thread struct {
	RoomID   string    `json:"roomId"`
	Messages []Message `json:"messages"`
}

// Job is a marketplace job posting.
type Job struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	PostedBy    string `json:"postedBy"`
	Status      string `json:"status"`
}

// Notification is one notification record.
type Notification struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	JobID    string `json:"jobId,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
	Read     bool   `json:"read"`
}

// User is an account as returned by signup/signin.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Tokens    int    `json:"tokens"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Action     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Signup registers an account and stores the returned token.
func (c *Client) Signup(firstName, lastName, username, password string) (*User, error) {
	var resp authResponse
	err := c.post("/signup", map[string]string{
		"firstName": firstName,
		"lastName":  lastName,
		"username":  username,
		"password":  password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.Token = resp.Token
	return resp.User, nil
}

// Signin logs in and stores the returned token.
func (c *Client) Signin(username, password string) (*User, error) {
	var resp authResponse
	err := c.post("/signin", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.Token = resp.Token
	return resp.User, nil
}

// Jobs lists the job catalog.
func (c *Client) Jobs() ([]Job, error) {
	var jobs []Job
	return jobs, c.get("/jobs", &jobs)
}

// CreateJob posts a job. Costs tokens.
func (c *Client) CreateJob(title, category, description string) (*Job, error) {
	var job Job
	err := c.post("/jobs", map[string]string{
		"title":       title,
		"category":    category,
		"description": description,
	}, &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ApplyResult is a successful application.
type ApplyResult struct {
	RoomID        string `json:"roomId"`
	TokenDeducted int    `json:"tokenDeducted"`
	NewBalance    int    `json:"newBalance"`
}

// Apply applies for a job, spending a token and unlocking messaging
// with the job owner.
func (c *Client) Apply(jobID string) (*ApplyResult, error) {
	var res ApplyResult
	if err := c.post("/jobs/apply", map[string]string{"jobId": jobID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EligibilityResult is an eligibility probe outcome.
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
	Action   string `json:"action,omitempty"`
}

// CheckEligibility asks whether the caller may message about a job.
// Ineligible outcomes come back as a result, not an error.
func (c *Client) CheckEligibility(jobID string) (*EligibilityResult, error) {
	var res EligibilityResult
	err := c.post("/messages/check-eligibility", map[string]string{"jobId": jobID}, &res)
	if err != nil {
		// 403/404 carry the probe result in the body; surface it.
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusNotFound) {
			return &EligibilityResult{Eligible: false, Reason: apiErr.Message, Action: apiErr.Action}, nil
		}
		return nil, err
	}
	return &res, nil
}

// SendMessage appends a message to a room thread and returns the
// updated thread.
func (c *Client) SendMessage(roomID, text string) (*Thread, error) {
	var thread Thread
	err := c.post("/messages1", map[string]any{
		"roomId":  roomID,
		"message": map[string]string{"text": text},
	}, &thread)
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// Messages fetches a room's history.
func (c *Client) Messages(roomID string) (*Thread, error) {
	var thread Thread
	if err := c.post("/messages1", map[string]any{"roomId": roomID}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// ThreadsForJob lists every conversation attached to a job.
func (c *Client) ThreadsForJob(jobID string) ([]Thread, error) {
	var threads []Thread
	return threads, c.post("/getAllForPost", map[string]string{"jobId": jobID}, &threads)
}

// Balance returns the caller's token balance.
func (c *Client) Balance() (int, error) {
	var resp struct {
		Tokens int `json:"tokens"`
	}
	if err := c.post("/tokens/balance", map[string]string{}, &resp); err != nil {
		return 0, err
	}
	return resp.Tokens, nil
}

// PurchaseTokens credits a named token package.
func (c *Client) PurchaseTokens(pkg string) (int, error) {
	var resp struct {
		NewBalance int `json:"newBalance"`
	}
	if err := c.post("/tokens/purchase", map[string]string{"package": pkg}, &resp); err != nil {
		return 0, err
	}
	return resp.NewBalance, nil
}

// Notifications lists the caller's notifications.
func (c *Client) Notifications() ([]Notification, error) {
	var list []Notification
	return list, c.post("/notifications", map[string]string{}, &list)
}

// post sends an authenticated JSON POST and decodes the response.
func (c *Client) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// get sends an authenticated GET and decodes the response.
func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
			Action string `json:"action"`
		}
		_ = json.Unmarshal(data, &body)
		msg := body.Error
		if msg == "" {
			msg = body.Reason
		}
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Action: body.Action}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Event is one websocket frame.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Socket is a live websocket session.
type Socket struct {
	conn *websocket.Conn
}

// Connect opens the realtime websocket, authenticating with the
// client's token via query parameter.
func (c *Client) Connect() (*Socket, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("connect: sign in first")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.Token}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

// Close shuts the socket down.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// ReadEvent blocks for the next server event.
func (s *Socket) ReadEvent() (*Event, error) {
	var ev Event
	if err := s.conn.ReadJSON(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// JoinRoom subscribes the session to a room.
func (s *Socket) JoinRoom(roomID string) error {
	return s.send("joinRoom", map[string]string{"roomId": roomID})
}

// SendMessage sends a chat message through the relay.
func (s *Socket) SendMessage(roomID, text string) error {
	return s.send("sendMessage", map[string]any{
		"roomId":  roomID,
		"message": map[string]string{"text": text},
	})
}

// Typing signals that the user is typing in a room.
func (s *Socket) Typing(roomID string) error {
	return s.send("typing", map[string]string{"roomId": roomID})
}

// StopTyping clears the typing signal.
func (s *Socket) StopTyping(roomID string) error {
	return s.send("stopTyping", map[string]string{"roomId": roomID})
}

func (s *Socket) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(Event{Event: event, Data: raw})
}
