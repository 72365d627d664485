package app

import (
	"fmt"
	"time"

	"filedesk-cli/internal/api"

	"github.com/google/uuid"
)

const (
	// ToastLifetime is how long a toast stays up before it dismisses itself.
	ToastLifetime = 5 * time.Second
	// ToastExitWindow is the delay between dismissal and removal, during which
	// the toast renders its exit transition.
	ToastExitWindow = 300 * time.Millisecond
)

// Reducer computes state transitions. NewID names new toasts; nil uses random UUIDs.
type Reducer struct {
	NewID func() string
}

// Reduce applies a with the default Reducer.
func Reduce(s State, a Action) (State, []Effect) {
	return Reducer{}.Reduce(s, a)
}

func (r Reducer) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

// Reduce returns the next state and the effects to run. s is not modified.
func (r Reducer) Reduce(s State, a Action) (State, []Effect) {
	s = s.clone()
	var effs []Effect

	switch a := a.(type) {
	case Init:
		return s, []Effect{FetchFiles{}, FetchHealth{}}

	case CheckHealth:
		return s, []Effect{FetchHealth{}}

	case HealthChecked:
		s.AI.Checked = true
		if a.Err != nil {
			s.AI.Available = false
			return s, nil
		}
		if a.Resp.Success {
			s.AI.Available = a.Resp.AIAvailable()
			s.AI.Model = a.Resp.Model
		}
		return s, nil

	case LoadFiles:
		return s, []Effect{FetchFiles{}}

	case FilesLoaded:
		switch {
		case a.Err != nil:
			return r.status(s, "Error loading files: "+api.Describe(a.Err), SeverityError)
		case !a.Resp.Success:
			return r.status(s, "Failed to load files: "+a.Resp.Message, SeverityError)
		}
		s.Files = append([]string{}, a.Resp.Files...)
		s.Listed = true
		return s, nil

	case SelectFolder:
		s.Uploads.Folder = append([]string(nil), a.Files...)
		if len(a.Files) == 0 {
			return s, nil
		}
		return r.Reduce(s, Upload{})

	case SelectFiles:
		s.Uploads.Files = append([]string(nil), a.Files...)
		if len(a.Files) == 0 {
			return s, nil
		}
		return r.Reduce(s, Upload{Files: a.Files})

	case Upload:
		files := ResolveUploadSource(a.Files, s.Uploads)
		if len(files) == 0 {
			return r.status(s, "Please select files to upload", SeverityError)
		}
		s, effs = r.status(s, "Uploading files...", SeverityInfo)
		return s, append(effs, PostUpload{Files: files})

	case Uploaded:
		switch {
		case a.Err != nil:
			return r.status(s, "Upload error: "+api.Describe(a.Err), SeverityError)
		case !a.Resp.Success:
			return r.status(s, "Upload failed: "+a.Resp.Message, SeverityError)
		}
		s.Uploads = UploadInputs{}
		s, effs = r.status(s, "Successfully uploaded "+Pluralize(len(a.Resp.Files), "file", "files"), SeveritySuccess)
		return s, append(effs, FetchFiles{})

	case EditFile:
		return s, []Effect{FetchFile{Name: a.Name}}

	case FileFetched:
		switch {
		case a.Err != nil:
			return r.status(s, "Error loading file: "+api.Describe(a.Err), SeverityError)
		case !a.Resp.Success:
			return r.status(s, "Failed to load file: "+a.Resp.Message, SeverityError)
		}
		s.Editor = EditorSession{CurrentFile: a.Name, Content: a.Resp.Content}
		s.Focus = FocusEditor
		// Availability may have changed since start-up.
		return s, []Effect{FetchHealth{}}

	case SetContent:
		if s.Editor.Open() {
			s.Editor.Content = a.Content
		}
		return s, nil

	case SetPrompt:
		if s.Editor.Open() {
			s.Editor.Prompt = a.Prompt
		}
		return s, nil

	case ApplyAIEdit:
		if !s.Editor.Open() {
			return r.status(s, "No file selected", SeverityError)
		}
		if !s.AI.Available {
			return r.status(s, "AI service is not available", SeverityError)
		}
		prompt := trimmed(s.Editor.Prompt)
		if prompt == "" {
			return r.status(s, "Please enter an edit prompt", SeverityError)
		}
		s.Loading = true
		return s, []Effect{PutAIEdit{Filename: s.Editor.CurrentFile, Prompt: prompt}}

	case AIEdited:
		s.Loading = false
		switch {
		case a.Err != nil:
			return r.status(s, "Error applying AI edit: "+api.Describe(a.Err), SeverityError)
		case !a.Resp.Success:
			return r.status(s, "AI edit failed: "+a.Resp.Message, SeverityError)
		}
		if s.Editor.CurrentFile == a.Filename {
			s.Editor.Content = a.Resp.NewContent
			s.Editor.Prompt = ""
		}
		return r.status(s, "File edited with AI assistance", SeveritySuccess)

	case SaveFile:
		if !s.Editor.Open() {
			return r.status(s, "No file selected", SeverityError)
		}
		return s, []Effect{PutSave{Filename: s.Editor.CurrentFile, Content: s.Editor.Content}}

	case Saved:
		switch {
		case a.Err != nil:
			return r.status(s, "Error saving file: "+api.Describe(a.Err), SeverityError)
		case !a.Resp.Success:
			return r.status(s, "Save failed: "+a.Resp.Message, SeverityError)
		}
		return r.status(s, "File saved successfully", SeveritySuccess)

	case CloseEditor:
		s.closeEditor()
		return s, nil

	case DeleteFile:
		s.Confirm = &Confirm{
			Kind:     ConfirmDeleteFile,
			Filename: a.Name,
			Message:  `Are you sure you want to delete "` + a.Name + `"?`,
		}
		return s, nil

	case DeleteAllFiles:
		if len(s.Files) == 0 {
			return r.status(s, "No files to delete", SeverityError)
		}
		n := len(s.Files)
		s.Confirm = &Confirm{
			Kind:    ConfirmDeleteAll,
			Count:   n,
			Message: "Are you sure you want to delete all " + Pluralize(n, "file", "files") + "? This action cannot be undone.",
		}
		return s, nil

	case ConfirmReject:
		s.Confirm = nil
		return s, nil

	case ConfirmAccept:
		c := s.Confirm
		s.Confirm = nil
		if c == nil {
			return s, nil
		}
		switch c.Kind {
		case ConfirmDeleteFile:
			return s, []Effect{SendDelete{Name: c.Filename}}
		case ConfirmDeleteAll:
			if len(s.Files) == 0 {
				return r.status(s, "No files to delete", SeverityError)
			}
			names := append([]string(nil), s.Files...)
			s, effs = r.status(s, "Deleting all files...", SeverityInfo)
			return s, append(effs, SendDeleteAll{Names: names})
		}
		return s, nil

	case Deleted:
		switch {
		case a.Err != nil:
			return r.status(s, "Error deleting file: "+api.Describe(a.Err), SeverityError)
		case !a.Resp.Success:
			return r.status(s, "Delete failed: "+a.Resp.Message, SeverityError)
		}
		s, effs = r.status(s, "File deleted successfully", SeveritySuccess)
		effs = append(effs, FetchFiles{})
		if s.Editor.CurrentFile == a.Name {
			s.closeEditor()
		}
		return s, effs

	case DeletedAll:
		if a.Err != nil {
			return r.status(s, "Error deleting files: "+api.Describe(a.Err), SeverityError)
		}
		s, effs = r.status(s, "All files deleted successfully", SeveritySuccess)
		s.closeEditor()
		return s, append(effs, FetchFiles{})

	case ShowCreateDialog:
		s.Create.Open = true
		return s, nil

	case HideCreateDialog:
		s.Create = CreateDialog{}
		return s, nil

	case SetCreateFilename:
		s.Create.Filename = a.Filename
		return s, nil

	case SetCreateContent:
		s.Create.Content = a.Content
		return s, nil

	case CreateFile:
		name := trimmed(s.Create.Filename)
		if name == "" {
			return r.status(s, "Please enter a filename", SeverityError)
		}
		return s, []Effect{PostCreate{Filename: name, Content: s.Create.Content}}

	case Created:
		switch {
		case a.Err != nil:
			return r.status(s, "Error creating file: "+api.Describe(a.Err), SeverityError)
		case !a.Resp.Success:
			return r.status(s, "Create failed: "+a.Resp.Message, SeverityError)
		}
		s, effs = r.status(s, "File created successfully", SeveritySuccess)
		s.Create = CreateDialog{}
		return s, append(effs, FetchFiles{})

	case DownloadFile:
		return s, []Effect{FetchDownload{Name: a.Name}}

	case DownloadCurrentFile:
		if !s.Editor.Open() {
			return r.status(s, "No file is currently open", SeverityError)
		}
		return s, []Effect{FetchDownload{Name: s.Editor.CurrentFile}}

	case Downloaded:
		switch {
		case api.IsStatus(a.Err):
			return r.status(s, "Download failed for "+a.Name, SeverityError)
		case a.Err != nil:
			return r.status(s, "Error downloading "+a.Name+": "+api.Describe(a.Err), SeverityError)
		}
		return r.status(s, "Downloaded "+a.Name, SeveritySuccess)

	case DownloadAllFiles:
		s, effs = r.status(s, "Preparing download...", SeverityInfo)
		return s, append(effs, FetchDownloadAll{})

	case DownloadedAll:
		switch {
		case api.IsStatus(a.Err):
			return r.status(s, "Download failed", SeverityError)
		case a.Err != nil:
			return r.status(s, "Error downloading files: "+api.Describe(a.Err), SeverityError)
		}
		return r.status(s, "Downloaded all files as ZIP", SeveritySuccess)

	case ShowStatus:
		return r.status(s, a.Message, a.Severity)

	case DismissToast:
		for i := range s.Toasts {
			if s.Toasts[i].ID != a.ID {
				continue
			}
			if s.Toasts[i].Hiding {
				return s, nil
			}
			s.Toasts[i].Hiding = true
			return s, []Effect{After{Delay: ToastExitWindow, Action: RemoveToast{ID: a.ID}}}
		}
		return s, nil

	case RemoveToast:
		out := s.Toasts[:0]
		for _, t := range s.Toasts {
			if t.ID != a.ID {
				out = append(out, t)
			}
		}
		s.Toasts = out
		return s, nil

	case SetFocus:
		if a.Focus != FocusList && !s.Editor.Open() {
			return s, nil
		}
		s.Focus = a.Focus
		return s, nil
	}

	return s, nil
}

// status appends a toast and schedules its automatic dismissal.
func (r Reducer) status(s State, msg string, sev Severity) (State, []Effect) {
	if sev == "" {
		sev = SeverityInfo
	}
	id := r.newID()
	s.Toasts = append(s.Toasts, Toast{ID: id, Message: msg, Severity: sev})
	return s, []Effect{After{Delay: ToastLifetime, Action: DismissToast{ID: id}}}
}

func (s *State) closeEditor() {
	s.Editor = EditorSession{}
	if s.Focus != FocusList {
		s.Focus = FocusList
	}
}

// clone copies the slices Reduce may modify in place.
func (s State) clone() State {
	s.Files = append([]string(nil), s.Files...)
	s.Toasts = append([]Toast(nil), s.Toasts...)
	if s.Confirm != nil {
		c := *s.Confirm
		s.Confirm = &c
	}
	s.Uploads.Folder = append([]string(nil), s.Uploads.Folder...)
	s.Uploads.Files = append([]string(nil), s.Uploads.Files...)
	return s
}

// ResolveUploadSource picks the files to upload: an explicit selection wins,
// then the folder input, then the multi-file input.
func ResolveUploadSource(explicit []string, in UploadInputs) []string {
	if explicit != nil {
		return append([]string(nil), explicit...)
	}
	if len(in.Folder) > 0 {
		return append([]string(nil), in.Folder...)
	}
	return append([]string(nil), in.Files...)
}

// Pluralize renders "1 file" / "3 files".
func Pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
