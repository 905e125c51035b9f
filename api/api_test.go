package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/papermind/pkg/completion"
	"github.com/papercomputeco/papermind/pkg/llm"
	"github.com/papercomputeco/papermind/pkg/logger"
	"github.com/papercomputeco/papermind/pkg/sse"
)

// fakeStreamer replays deltas and then returns err.
type fakeStreamer struct {
	validateErr error
	deltas      []string
	err         error

	messages []llm.Message
}

func (f *fakeStreamer) Validate() error {
	return f.validateErr
}

func (f *fakeStreamer) Stream(_ context.Context, messages []llm.Message, onDelta sse.DeltaHandler) (string, error) {
	f.messages = messages

	var full strings.Builder
	for _, d := range f.deltas {
		full.WriteString(d)
		onDelta(d, full.String())
	}
	if f.err != nil {
		return "", f.err
	}
	return full.String(), nil
}

var _ = Describe("Server", func() {
	var (
		streamer *fakeStreamer
		server   *Server
	)

	BeforeEach(func() {
		streamer = &fakeStreamer{deltas: []string{"Hel", "lo"}}
		server = NewServer(Config{ListenAddr: ":0"}, streamer, logger.Nop())
	})

	do := func(method, path, body string) (*http.Response, string) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())

		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, string(data)
	}

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, body := do(http.MethodGet, "/ping", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(Equal(`"pong"`))
		})
	})

	Describe("GET /metrics", func() {
		It("exposes prometheus metrics", func() {
			resp, body := do(http.MethodGet, "/metrics", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring("papermind_active_streams"))
		})
	})

	Describe("request IDs", func() {
		It("generates one when the caller sends none", func() {
			resp, _ := do(http.MethodGet, "/ping", "")
			Expect(resp.Header.Get("X-Request-Id")).To(HaveLen(36))
		})

		It("echoes the caller's ID", func() {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("X-Request-Id", "abc-123")

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("X-Request-Id")).To(Equal("abc-123"))
		})
	})

	Describe("POST /v1/explain", func() {
		It("streams deltas followed by a done event", func() {
			resp, body := do(http.MethodPost, "/v1/explain", `{"context":"The paper.","selection":"paper"}`)

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
			Expect(body).To(Equal(
				`data: {"delta":"Hel","text":"Hel"}` + "\n\n" +
					`data: {"delta":"lo","text":"Hello"}` + "\n\n" +
					"event: done\n" + `data: {"text":"Hello"}` + "\n\n",
			))
		})

		It("builds the explanation prompt from the request", func() {
			do(http.MethodPost, "/v1/explain", `{"context":"The paper.","selection":"paper"}`)

			Expect(streamer.messages).To(HaveLen(2))
			Expect(streamer.messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(streamer.messages[1].Content).To(Equal("Context: \"\"\"The paper.\"\"\"\n\nSelection: \"\"\"paper\"\"\""))
		})

		It("applies the configured context limit", func() {
			server = NewServer(Config{ExplainContextLimit: 3}, streamer, logger.Nop())
			do(http.MethodPost, "/v1/explain", `{"context":"abcdef","selection":"x"}`)

			Expect(streamer.messages[1].Content).To(HavePrefix(`Context: """def"""`))
		})

		It("rejects a missing selection", func() {
			resp, body := do(http.MethodPost, "/v1/explain", `{"context":"c"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring("selection is required"))
		})

		It("rejects an invalid body", func() {
			resp, _ := do(http.MethodPost, "/v1/explain", `{"context":`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("reports a missing API key before streaming", func() {
			streamer.validateErr = &completion.ConfigError{Setting: "llm.api_key"}

			resp, body := do(http.MethodPost, "/v1/explain", `{"selection":"x"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusPreconditionFailed))
			Expect(body).To(ContainSubstring("llm.api_key is not configured"))
			Expect(streamer.messages).To(BeNil())
		})

		It("ends the stream with an error event carrying the API message", func() {
			streamer.deltas = nil
			streamer.err = &completion.TransportError{StatusCode: http.StatusUnauthorized, Message: "Incorrect API key provided"}

			resp, body := do(http.MethodPost, "/v1/explain", `{"selection":"x"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(Equal("event: error\n" + `data: {"error":"Incorrect API key provided"}` + "\n\n"))
		})

		It("hides connection details from the client", func() {
			streamer.deltas = []string{"par"}
			streamer.err = errors.New("reading stream: read tcp 10.0.0.1:443: connection reset")

			_, body := do(http.MethodPost, "/v1/explain", `{"selection":"x"}`)
			Expect(body).To(HavePrefix(`data: {"delta":"par","text":"par"}`))
			Expect(body).To(HaveSuffix("event: error\n" + `data: {"error":"upstream request failed"}` + "\n\n"))
			Expect(body).NotTo(ContainSubstring("10.0.0.1"))
		})
	})

	Describe("POST /v1/report", func() {
		It("streams a report built from the notes", func() {
			resp, body := do(http.MethodPost, "/v1/report",
				`{"context":"ctx","notes":[{"text":"a","page":1},{"text":"b","page":2,"explanation":"c"}]}`)

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(HaveSuffix("event: done\n" + `data: {"text":"Hello"}` + "\n\n"))
			Expect(streamer.messages[1].Content).To(Equal(
				"Context: \"\"\"ctx\"\"\"\n\nUser Notes:\n" +
					"[Note 1]: \"a\" (Page 1)\n\n" +
					"[Note 2]: \"b\" (Page 2)\n   -> [AI Insight]: c",
			))
		})

		It("rejects an invalid body", func() {
			resp, _ := do(http.MethodPost, "/v1/report", `[`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("writeEvent", func() {
	It("writes an unnamed event", func() {
		var b strings.Builder
		Expect(writeEvent(&b, "", DoneEvent{Text: "x"})).To(Succeed())
		Expect(b.String()).To(Equal(`data: {"text":"x"}` + "\n\n"))
	})

	It("keeps newlines in the payload on one data line", func() {
		var b strings.Builder
		Expect(writeEvent(&b, "", DeltaEvent{Delta: "a\nb", Text: "a\nb"})).To(Succeed())
		Expect(strings.Count(b.String(), "\n")).To(Equal(2))
	})
})
