package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/shopspring/decimal"
)

// validator is implemented by every request body.
type validator interface {
	validate() error
}

type signInRequest struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

func (r signInRequest) validate() error {
	if strings.TrimSpace(r.PublicKey) == "" {
		return fmt.Errorf("%w: publicKey is required", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Signature) == "" {
		return fmt.Errorf("%w: signature is required", domain.ErrValidation)
	}
	return nil
}

type optionInput struct {
	ImageURL string `json:"imageUrl"`
}

type createTaskRequest struct {
	Options   []optionInput `json:"options"`
	Title     string        `json:"title"`
	Signature string        `json:"signature"`
}

func (r createTaskRequest) validate() error {
	if len(r.Options) < config.MinOptions {
		return fmt.Errorf("%w: minimum %d options are required", domain.ErrValidation, config.MinOptions)
	}
	for i, o := range r.Options {
		if strings.TrimSpace(o.ImageURL) == "" {
			return fmt.Errorf("%w: options[%d].imageUrl is required", domain.ErrValidation, i)
		}
	}
	if strings.TrimSpace(r.Signature) == "" {
		return fmt.Errorf("%w: signature is required", domain.ErrValidation)
	}
	return nil
}

func (r createTaskRequest) imageURLs() []string {
	urls := make([]string, len(r.Options))
	for i, o := range r.Options {
		urls[i] = o.ImageURL
	}
	return urls
}

// submissionRequest carries ids as strings, the way clients send them.
type submissionRequest struct {
	TaskID    string `json:"taskId"`
	Selection string `json:"selection"`
}

func (r submissionRequest) validate() error {
	_, _, err := r.ids()
	return err
}

func (r submissionRequest) ids() (taskID, optionID int64, err error) {
	if taskID, err = parseID(r.TaskID); err != nil {
		return 0, 0, fmt.Errorf("taskId: %w", err)
	}
	if optionID, err = parseID(r.Selection); err != nil {
		return 0, 0, fmt.Errorf("selection: %w", err)
	}
	return taskID, optionID, nil
}

// bindJSON decodes the body into req and runs its checks.
func bindJSON(c *gin.Context, req validator) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return req.validate()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an id", domain.ErrValidation, s)
	}
	return id, nil
}

type optionResponse struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url"`
	TaskID   int64  `json:"task_id"`
}

type taskResponse struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Amount    int64            `json:"amount"`
	Signature string           `json:"signature"`
	Done      bool             `json:"done"`
	UserID    int64            `json:"user_id"`
	Options   []optionResponse `json:"options"`
}

type nextTaskResponse struct {
	ID      int64            `json:"id"`
	Title   string           `json:"title"`
	Amount  int64            `json:"amount"`
	Options []optionResponse `json:"options"`
}

type optionCount struct {
	OptionID int64 `json:"optionId"`
	Count    int   `json:"count"`
	Task     struct {
		ImageURL string `json:"imageUrl"`
	} `json:"task"`
}

type taskResultResponse struct {
	Title   string        `json:"title"`
	Done    bool          `json:"done"`
	Options []optionCount `json:"options"`
}

type submissionResponse struct {
	NextTask *nextTaskResponse `json:"nextTask"`
	Amount   decimal.Decimal   `json:"amount"`
}

type balanceResponse struct {
	PendingAmount int64 `json:"pending_amount"`
	LockedAmount  int64 `json:"locked_amount"`
}

type payoutResponse struct {
	ID        int64  `json:"id"`
	Signature string `json:"signature"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

func toOptions(in []domain.Option) []optionResponse {
	out := make([]optionResponse, len(in))
	for i, o := range in {
		out[i] = optionResponse{ID: o.ID, ImageURL: o.ImageURL, TaskID: o.TaskID}
	}
	return out
}

func toTask(t domain.Task) taskResponse {
	return taskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Amount:    t.Amount,
		Signature: t.Signature,
		Done:      t.Done,
		UserID:    t.OwnerID,
		Options:   toOptions(t.Options),
	}
}

func toNextTask(t *domain.TaskSummary) *nextTaskResponse {
	if t == nil {
		return nil
	}
	return &nextTaskResponse{ID: t.ID, Title: t.Title, Amount: t.Amount, Options: toOptions(t.Options)}
}

func toTaskResult(r *domain.TaskResult) taskResultResponse {
	out := taskResultResponse{Title: r.Title, Done: r.Done, Options: make([]optionCount, len(r.Options))}
	for i, o := range r.Options {
		out.Options[i].OptionID = o.OptionID
		out.Options[i].Count = o.Count
		out.Options[i].Task.ImageURL = o.ImageURL
	}
	return out
}

func toPayout(p domain.Payout) payoutResponse {
	return payoutResponse{ID: p.ID, Signature: p.Signature, Status: string(p.Status), Amount: p.Amount}
}
