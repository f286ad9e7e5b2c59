// Package server provides the HTTP surface of the media processing API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// ConvertRequest carries the form options for POST /convert.
type ConvertRequest struct {
	// OutputFormat is the target container extension, e.g. "mp4".
	OutputFormat string `validate:"required,alphanum,max=8"`
	// VideoCodec overrides the video encoder when set.
	VideoCodec string `validate:"omitempty,max=32"`
	// AudioCodec overrides the audio encoder when set.
	AudioCodec string `validate:"omitempty,max=32"`
	// Width and Height must be provided together to request scaling.
	Width  int `validate:"min=0,max=7680"`
	Height int `validate:"min=0,max=7680"`
}

// CreateVideoRequest carries the form options for POST /create_video.
type CreateVideoRequest struct {
	OutputFormat     string  `validate:"required,alphanum,max=8"`
	Width            int     `validate:"min=1,max=7680"`
	Height           int     `validate:"min=1,max=7680"`
	DurationPerImage float64 `validate:"gt=0"`
	TransitionType   string  `validate:"required,oneof=fade dissolve"`
	// TransitionDuration must leave a positive display window on each image;
	// that relation is checked by the command assembler.
	TransitionDuration float64 `validate:"min=0"`
}

// SubtitleStyleRequest carries the shared subtitle styling form options.
type SubtitleStyleRequest struct {
	FontName  string  `validate:"required,max=64"`
	FontSize  int     `validate:"min=1,max=200"`
	FontColor string  `validate:"required,max=32"`
	FontAlpha float64 `validate:"min=0,max=1"`

	BorderStyle int     `validate:"min=0,max=4"`
	BorderSize  int     `validate:"min=0,max=50"`
	BorderColor string  `validate:"required,max=32"`
	BorderAlpha float64 `validate:"min=0,max=1"`

	ShadowSize int `validate:"min=0,max=50"`

	BackgroundColor string  `validate:"required,max=32"`
	BackgroundAlpha float64 `validate:"min=0,max=1"`

	MarginVertical int `validate:"min=0,max=500"`
	// Alignment is the numpad-style position code.
	Alignment int `validate:"min=1,max=9"`
}

// AddSubtitleRequest carries the form options for POST /add_subtitle.
type AddSubtitleRequest struct {
	OutputFormat string `validate:"required,alphanum,max=8"`
	Style        SubtitleStyleRequest
}

// CreateWaveformRequest carries the form options for POST /create_waveform.
type CreateWaveformRequest struct {
	OutputFormat    string  `validate:"required,alphanum,max=8"`
	Width           int     `validate:"min=1,max=7680"`
	Height          int     `validate:"min=1,max=7680"`
	WaveMode        string  `validate:"required,oneof=line point p2p cline"`
	WaveColor       string  `validate:"required,max=32"`
	BackgroundColor string  `validate:"required,max=32"`
	FPS             int     `validate:"min=1,max=120"`
	Duration        float64 `validate:"min=0"`
}

// CreateSpectrogramRequest carries the form options for POST /create_spectrogram.
type CreateSpectrogramRequest struct {
	OutputFormat string  `validate:"required,alphanum,max=8"`
	Width        int     `validate:"min=1,max=7680"`
	Height       int     `validate:"min=1,max=7680"`
	Mode         string  `validate:"required,oneof=combined separate"`
	ColorMode    string  `validate:"required,oneof=intensity channel"`
	Scale        string  `validate:"required,oneof=lin log sqrt"`
	Saturation   float64 `validate:"min=0,max=10"`
	WindowFunc   string  `validate:"required,oneof=rectangular hanning hamming blackman"`
	FPS          int     `validate:"min=1,max=120"`
	Duration     float64 `validate:"min=0"`
}

// SeparateVocalsRequest carries the form options for POST /separate_vocals.
type SeparateVocalsRequest struct {
	OutputFormat string `validate:"required,alphanum,max=8"`
	// VocalType is validated by the command assembler so unknown values are
	// rejected with the mode error, never defaulted.
	VocalType     string
	HighFreq      int     `validate:"min=1,max=24000"`
	LowFreq       int     `validate:"min=1,max=24000"`
	CenterBoost   float64 `validate:"min=0,max=64"`
	SideReduction float64 `validate:"min=0,max=64"`
}

// CreateVisualizationRequest carries the form options for POST /visualizations.
type CreateVisualizationRequest struct {
	OutputFormat       string  `validate:"required,alphanum,max=8"`
	Width              int     `validate:"min=1,max=7680"`
	Height             int     `validate:"min=1,max=7680"`
	ImageDuration      float64 `validate:"gt=0"`
	VisualizationType  string  `validate:"required,oneof=waveform spectrum"`
	WaveMode           string  `validate:"required,oneof=line point p2p cline"`
	WaveColor          string  `validate:"required,max=32"`
	SpectrumMode       string  `validate:"required,oneof=combined separate"`
	SpectrumColor      string  `validate:"required,oneof=intensity channel"`
	SpectrumScale      string  `validate:"required,oneof=lin log sqrt"`
	SpectrumSaturation float64 `validate:"min=0,max=10"`
	FPS                int     `validate:"min=1,max=120"`
	Opacity            float64 `validate:"min=0,max=1"`
	Duration           float64 `validate:"min=0"`
	PushToS3           bool

	Style SubtitleStyleRequest
}

// CreateJobResponse is the HTTP response after submitting a visualization job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// JobResponse is the HTTP response for polling job details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// DownloadURL points at the result endpoint once the job completed.
	DownloadURL string `json:"download_url,omitempty"`
	// ResultURL is the S3 URL of the result when publication was requested.
	ResultURL string `json:"result_url,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
