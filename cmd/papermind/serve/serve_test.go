package servecmder_test

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	servecmder "github.com/papercomputeco/papermind/cmd/papermind/serve"
)

var _ = Describe("Serve command", func() {
	var tmpDir string

	newRoot := func(args ...string) *cobra.Command {
		root := &cobra.Command{Use: "papermind", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(servecmder.NewServeCmd())
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"serve", "--config-dir", tmpDir}, args...))
		return root
	}

	freeAddr := func() string {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		addr := l.Addr().String()
		Expect(l.Close()).To(Succeed())
		return addr
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "papermind-serve-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("registers its flags", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
		for _, name := range []string{"listen", "model", "base-url", "api-key", "timeout", "log-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8081"))
	})

	It("serves until the context is canceled", func() {
		addr := freeAddr()
		logFile := filepath.Join(tmpDir, "serve.log")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- newRoot("--listen", addr, "--api-key", "sk-test", "--log-file", logFile).ExecuteContext(ctx)
		}()

		Eventually(func() int {
			resp, err := http.Get(fmt.Sprintf("http://%s/ping", addr))
			if err != nil {
				return 0
			}
			resp.Body.Close()
			return resp.StatusCode
		}, 5*time.Second, 50*time.Millisecond).Should(Equal(http.StatusOK))

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))

		data, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"starting API server"`))
		Expect(string(data)).To(ContainSubstring(`"provider":"deepseek"`))
	})

	It("warns that a missing key needs a restart and rejects requests", func() {
		GinkgoT().Setenv("PAPERMIND_LLM_API_KEY", "")
		GinkgoT().Setenv("DEEPSEEK_API_KEY", "")

		addr := freeAddr()
		logFile := filepath.Join(tmpDir, "serve.log")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- newRoot("--listen", addr, "--log-file", logFile).ExecuteContext(ctx)
		}()

		Eventually(func() int {
			resp, err := http.Post(fmt.Sprintf("http://%s/v1/explain", addr), "application/json",
				strings.NewReader(`{"selection":"attention"}`))
			if err != nil {
				return 0
			}
			resp.Body.Close()
			return resp.StatusCode
		}, 5*time.Second, 50*time.Millisecond).Should(Equal(http.StatusPreconditionFailed))

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))

		data, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("until the server is restarted"))
	})

	It("returns an error when the address cannot be bound", func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer l.Close()

		err = newRoot("--listen", l.Addr().String(), "--api-key", "sk-test").Execute()
		Expect(err).To(MatchError(ContainSubstring("API server error")))
	})

	It("rejects an invalid timeout", func() {
		err := newRoot("--timeout", "soon").Execute()
		Expect(err).To(MatchError(ContainSubstring("invalid llm.timeout")))
	})
})
