package api

// Response is the envelope every JSON endpoint shares.
//
// A parsed response with Success=false is a structural failure; Message is
// the server's human-readable explanation and should be shown verbatim.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Err returns a *StructuralError when the server reported failure.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	return &StructuralError{Message: r.Message}
}

// AIServiceAvailable is the literal value of HealthResponse.AIService that
// enables AI-assisted editing.
const AIServiceAvailable = "available"

type HealthResponse struct {
	Response
	AIService string `json:"ai_service"`
	Model     string `json:"model"`
}

// AIAvailable reports whether the AI edit feature can be used.
func (h HealthResponse) AIAvailable() bool {
	return h.AIService == AIServiceAvailable
}

type ListResponse struct {
	Response
	Files []string `json:"files"`
}

type UploadResponse struct {
	Response
	Files []string `json:"files"`
}

type FileResponse struct {
	Response
	Content string `json:"content"`
}

type EditResponse struct {
	Response
	NewContent string `json:"new_content,omitempty"`
}

// editRequest is the body of PUT /api/files/edit. UseAI selects between an
// AI edit (Prompt) and a direct save (Content).
type editRequest struct {
	Filename string  `json:"filename"`
	Prompt   *string `json:"prompt,omitempty"`
	Content  *string `json:"content,omitempty"`
	UseAI    bool    `json:"use_ai"`
}

type filenameRequest struct {
	Filename string `json:"filename"`
}

type createRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// ArchiveName is the local name given to the bundle returned by /api/download/all.
const ArchiveName = "all_files.zip"
