package app

import (
	"time"

	"filedesk-cli/internal/api"
)

// Action is a user gesture or the outcome of an effect.
type Action interface{ isAction() }

// User gestures.
type (
	Init        struct{}
	CheckHealth struct{}
	LoadFiles   struct{}
	// Upload uploads Files when non-nil; otherwise the folder input, then the
	// multi-file input.
	Upload struct{ Files []string }
	// SelectFolder fills the folder input (already expanded to files) and uploads it.
	SelectFolder struct{ Files []string }
	// SelectFiles fills the multi-file input and uploads it.
	SelectFiles         struct{ Files []string }
	EditFile            struct{ Name string }
	SetContent          struct{ Content string }
	SetPrompt           struct{ Prompt string }
	ApplyAIEdit         struct{}
	SaveFile            struct{}
	CloseEditor         struct{}
	DeleteFile          struct{ Name string }
	DeleteAllFiles      struct{}
	ConfirmAccept       struct{}
	ConfirmReject       struct{}
	ShowCreateDialog    struct{}
	HideCreateDialog    struct{}
	SetCreateFilename   struct{ Filename string }
	SetCreateContent    struct{ Content string }
	CreateFile          struct{}
	DownloadFile        struct{ Name string }
	DownloadCurrentFile struct{}
	DownloadAllFiles    struct{}
	ShowStatus          struct {
		Message  string
		Severity Severity
	}
	DismissToast struct{ ID string }
	SetFocus     struct{ Focus Focus }
)

// Effect outcomes. Err is a transport-level failure; a structural failure
// arrives as a response with Success=false and a nil Err.
type (
	HealthChecked struct {
		Resp api.HealthResponse
		Err  error
	}
	FilesLoaded struct {
		Resp api.ListResponse
		Err  error
	}
	Uploaded struct {
		Resp api.UploadResponse
		Err  error
	}
	FileFetched struct {
		Name string
		Resp api.FileResponse
		Err  error
	}
	AIEdited struct {
		Filename string
		Resp     api.EditResponse
		Err      error
	}
	Saved struct {
		Filename string
		Resp     api.EditResponse
		Err      error
	}
	Deleted struct {
		Name string
		Resp api.Response
		Err  error
	}
	// DeletedAll ends a batch delete. Err is the transport failure that
	// aborted it, if any; per-file structural failures are not reported.
	DeletedAll struct {
		Attempted int
		Err       error
	}
	Created struct {
		Filename string
		Resp     api.Response
		Err      error
	}
	// Downloaded reports a finished single-file download. Err is an
	// *api.StatusError for an HTTP error status.
	Downloaded struct {
		Name  string
		Path  string
		Bytes int64
		Err   error
	}
	DownloadedAll struct {
		Path  string
		Bytes int64
		Err   error
	}
	RemoveToast struct{ ID string }
)

func (Init) isAction()                {}
func (CheckHealth) isAction()         {}
func (LoadFiles) isAction()           {}
func (Upload) isAction()              {}
func (SelectFolder) isAction()        {}
func (SelectFiles) isAction()         {}
func (EditFile) isAction()            {}
func (SetContent) isAction()          {}
func (SetPrompt) isAction()           {}
func (ApplyAIEdit) isAction()         {}
func (SaveFile) isAction()            {}
func (CloseEditor) isAction()         {}
func (DeleteFile) isAction()          {}
func (DeleteAllFiles) isAction()      {}
func (ConfirmAccept) isAction()       {}
func (ConfirmReject) isAction()       {}
func (ShowCreateDialog) isAction()    {}
func (HideCreateDialog) isAction()    {}
func (SetCreateFilename) isAction()   {}
func (SetCreateContent) isAction()    {}
func (CreateFile) isAction()          {}
func (DownloadFile) isAction()        {}
func (DownloadCurrentFile) isAction() {}
func (DownloadAllFiles) isAction()    {}
func (ShowStatus) isAction()          {}
func (DismissToast) isAction()        {}
func (SetFocus) isAction()            {}
func (HealthChecked) isAction()       {}
func (FilesLoaded) isAction()         {}
func (Uploaded) isAction()            {}
func (FileFetched) isAction()         {}
func (AIEdited) isAction()            {}
func (Saved) isAction()               {}
func (Deleted) isAction()             {}
func (DeletedAll) isAction()          {}
func (Created) isAction()             {}
func (Downloaded) isAction()          {}
func (DownloadedAll) isAction()       {}
func (RemoveToast) isAction()         {}

// Effect is work the executor performs on behalf of Reduce.
type Effect interface{ isEffect() }

type (
	FetchHealth struct{}
	FetchFiles  struct{}
	PostUpload  struct{ Files []string }
	FetchFile   struct{ Name string }
	PutAIEdit   struct{ Filename, Prompt string }
	PutSave     struct{ Filename, Content string }
	SendDelete  struct{ Name string }
	// SendDeleteAll deletes Names one at a time, in order, waiting for each
	// response before sending the next.
	SendDeleteAll    struct{ Names []string }
	PostCreate       struct{ Filename, Content string }
	FetchDownload    struct{ Name string }
	FetchDownloadAll struct{}
	// After feeds Action back once Delay has elapsed.
	After struct {
		Delay  time.Duration
		Action Action
	}
)

func (FetchHealth) isEffect()      {}
func (FetchFiles) isEffect()       {}
func (PostUpload) isEffect()       {}
func (FetchFile) isEffect()        {}
func (PutAIEdit) isEffect()        {}
func (PutSave) isEffect()          {}
func (SendDelete) isEffect()       {}
func (SendDeleteAll) isEffect()    {}
func (PostCreate) isEffect()       {}
func (FetchDownload) isEffect()    {}
func (FetchDownloadAll) isEffect() {}
func (After) isEffect()            {}
