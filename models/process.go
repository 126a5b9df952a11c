package models

import "fmt"

// File is a Discord attachment to download.
type File struct {
	Name       string `json:"name"`
	Attachment string `json:"attachment"`
	Filename   string `json:"filename"`
	URL        string `json:"url"`
}

// ProcessInput starts the process workflow for the attachments of one command.
type ProcessInput struct {
	Post     string `json:"post"`
	Invasion string `json:"invasion"`
	Folder   string `json:"folder"`
	Files    []File `json:"files"`
	Process  string `json:"process"`
	Month    string `json:"month"`
}

// NewProcessInput builds the workflow input, choosing the folder for the process.
func NewProcessInput(post string, inv *Invasion, files []File, process string) (*ProcessInput, error) {
	month, err := MonthOf(inv.Name)
	if err != nil {
		return nil, err
	}
	folder := inv.PathLadders()
	switch process {
	case ProcessRoster:
		folder = inv.PathRoster()
	case ProcessLadder, ProcessDownload:
	default:
		return nil, fmt.Errorf("%w: unknown process %q", ErrInvalid, process)
	}
	return &ProcessInput{
		Post:     post,
		Invasion: inv.Name,
		Folder:   folder,
		Files:    files,
		Process:  process,
		Month:    month,
	}, nil
}

// FileInputs fans the input out to one step per file.
func (p *ProcessInput) FileInputs() []FileInput {
	out := make([]FileInput, 0, len(p.Files))
	for _, f := range p.Files {
		out = append(out, FileInput{
			Invasion: p.Invasion,
			Filename: f.Filename,
			URL:      f.URL,
			Folder:   p.Folder,
			Process:  p.Process,
		})
	}
	return out
}

// FileInput is the per-file input to the process step.
type FileInput struct {
	Invasion string `json:"invasion"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Folder   string `json:"folder"`
	Process  string `json:"process"`
}

func (f FileInput) Key() string { return f.Folder + f.Filename }

// ProcessResult is the per-file output of the process step.
type ProcessResult struct {
	StatusCode int      `json:"statusCode"`
	Body       string   `json:"body"`
	Table      []string `json:"table,omitempty"`
	Posts      []string `json:"posts,omitempty"`
}

// PostTableInput posts a sequence of messages to the interaction webhook.
type PostTableInput struct {
	Post  string   `json:"post"`
	Msg   []string `json:"msg"`
	Count int      `json:"count"`
}

// DeadhandInput carries a Step Functions Catch error.
type DeadhandInput struct {
	Post  string `json:"post"`
	Error string `json:"error"`
	Cause string `json:"cause"`
}

func (d DeadhandInput) Message() string {
	return fmt.Sprintf("Unrecoverable error: %s %s", d.Error, d.Cause)
}

// MonthInput triggers the monthly report, an empty month meaning the previous one.
type MonthInput struct {
	Month string `json:"month"`
}

// Upload records a processed screenshot under #upload#<invasion>.
type Upload struct {
	Partition string `dynamodbav:"invasion"`
	Key       string `dynamodbav:"id"`
	Timestamp string `dynamodbav:"timestamp"`
}
