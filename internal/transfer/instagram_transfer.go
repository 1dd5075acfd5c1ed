package transfer

// Container creation and status responses from the Graph API media
// endpoints. Containers are the platform's asynchronous upload handle; a
// container must reach FINISHED before media_publish will accept it.

type ContainerResponse struct {
	ID    string      `json:"id"`
	Error *GraphError `json:"error,omitempty"`
}

type ContainerStatusResponse struct {
	StatusCode string      `json:"status_code"`
	ID         string      `json:"id"`
	Error      *GraphError `json:"error,omitempty"`
}

type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	IsTransient  bool   `json:"is_transient"`
	FbtraceID    string `json:"fbtrace_id"`
}

// Container status codes reported by the platform.
const (
	ContainerInProgress = "IN_PROGRESS"
	ContainerFinished   = "FINISHED"
	ContainerError      = "ERROR"
	ContainerExpired    = "EXPIRED"
	ContainerPublished  = "PUBLISHED"
)
