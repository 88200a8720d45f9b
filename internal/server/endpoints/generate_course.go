package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/courseforge/internal/api"
	"github.com/jackzampolin/courseforge/internal/coursegen"
	"github.com/jackzampolin/courseforge/internal/svcctx"
)

// maxRequestBytes bounds the request body of POST /generate-course.
const maxRequestBytes = 1 << 20

// GenerateCourseRequest is the request body for POST /generate-course.
type GenerateCourseRequest struct {
	Text string `json:"text" example:"Explain Grover's search algorithm"`
}

// GenerateCourseEndpoint handles POST /generate-course.
type GenerateCourseEndpoint struct{}

func (e *GenerateCourseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/generate-course", e.handler
}

// RequiresInit is false: the endpoint answers 200 with the sentinel even
// when the generator is not wired.
func (e *GenerateCourseEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Generate a course
//	@Description	Classifies the request, generates a course and repairs it until it is long enough.
//	@Description	Always answers 200; rejected or failed requests carry the content "Not Valid Content".
//	@Tags			courses
//	@Accept			json
//	@Produce		json
//	@Param			request	body		GenerateCourseRequest	true	"Course request"
//	@Success		200		{object}	coursegen.Response
//	@Router			/generate-course [post]
func (e *GenerateCourseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateCourseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		// An undecodable body is an empty request, which is rejected below.
		req.Text = ""
	}

	generator := svcctx.GeneratorFrom(r.Context())
	if generator == nil {
		writeJSON(w, http.StatusOK, coursegen.Response{
			Content: coursegen.NotValidContent,
			Error:   "course generator not available",
		})
		return
	}

	writeJSON(w, http.StatusOK, generator.Generate(r.Context(), req.Text))
}

func (e *GenerateCourseEndpoint) Command(getServerURL func() string) *cobra.Command {
	var deeper string
	cmd := &cobra.Command{
		Use:   "generate [topic...]",
		Short: "Generate a course on the server",
		Long: `Send a course request to the running server.

Use --deeper with the title of a previous course to request a follow-up
course that goes into more advanced detail.`,
		Example: `  courseforge api generate "Explain quantum teleportation"
  courseforge api generate --deeper "Introduction to Qubits"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if deeper != "" {
				text = coursegen.DeeperPrompt(deeper)
			}

			client := api.NewClient(getServerURL())
			var resp coursegen.Response
			if err := client.Post(cmd.Context(), "/generate-course", GenerateCourseRequest{Text: text}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&deeper, "deeper", "", "Title of a previous course to go deeper on")
	return cmd
}
