package capability

import "context"

// NotifyLevel classifies toast notifications.
type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifySuccess NotifyLevel = "success"
	NotifyWarning NotifyLevel = "warning"
	NotifyError   NotifyLevel = "error"
)

// Interactor is the host-provided user interaction capability: modal
// confirmation, text prompts, and fire-and-forget toasts. Confirm and
// Prompt are asynchronous suspension points; a dismissed dialog surfaces as
// (false, nil) or ("", nil) rather than an error.
type Interactor interface {
	Confirm(ctx context.Context, message string) (bool, error)
	Prompt(ctx context.Context, message, initial string) (string, error)
	Notify(level NotifyLevel, message string)
}

// NopInteractor declines every confirmation and prompt and swallows toasts.
// Hosts without interactive UI can wire it in; destructive flows then never
// proceed implicitly.
type NopInteractor struct{}

func (NopInteractor) Confirm(context.Context, string) (bool, error) { return false, nil }

func (NopInteractor) Prompt(context.Context, string, string) (string, error) { return "", nil }

func (NopInteractor) Notify(NotifyLevel, string) {}
