package server_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/session"
	"github.com/docbridge/docbridge/pkg/types"
)

func createDocument(content []byte) string {
	dir, err := os.MkdirTemp("", "docbridge-citest-*")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "deck.pptx")
	Expect(os.WriteFile(path, content, 0644)).To(Succeed())
	return path
}

var _ = Describe("Document round trip", func() {
	var sess *session.Session
	var docPath string

	BeforeEach(func() {
		docPath = createDocument([]byte("original presentation"))

		var err error
		sess, err = bridge.Controller.Open(context.Background(), docPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sess.Close()
	})

	It("serves the document to the document server", func() {
		status, body, err := docServer.FetchDocument(sess.Config.URL)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal([]byte("original presentation")))
	})

	It("writes the edited version back on a ready callback", func() {
		saved := make(chan event.Event, 1)
		unsub := bridge.Bus.Subscribe(event.SaveCompleted, func(e event.Event) { saved <- e })
		defer unsub()

		downloadURL := docServer.HostVersion("v2.pptx", []byte("edited presentation"))
		ack, status, err := docServer.SendCallback(sess.Config.CallbackURL, types.CallbackPayload{
			Status: types.StatusReadyForSave,
			URL:    downloadURL,
			Key:    sess.Config.Key,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(ack.Error).To(Equal(0))

		Eventually(saved).Should(Receive())
		Expect(os.ReadFile(docPath)).To(Equal([]byte("edited presentation")))
	})

	It("leaves the file alone for editing-only callbacks", func() {
		ack, status, err := docServer.SendCallback(sess.Config.CallbackURL, types.CallbackPayload{
			Status: types.StatusEditing,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(ack.Error).To(Equal(0))

		Consistently(func() ([]byte, error) { return os.ReadFile(docPath) }).
			Should(Equal([]byte("original presentation")))
	})

	It("rejects malformed callback bodies", func() {
		ack, status, err := docServer.SendRawCallback(sess.Config.CallbackURL, []byte("not json at all"))
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(ack.Error).To(Equal(1))
	})

	It("invalidates the token when the session closes", func() {
		sess.Close()

		status, _, err := docServer.FetchDocument(sess.Config.URL)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusNotFound))
	})

	It("still acknowledges callbacks for unknown tokens", func() {
		ack, status, err := docServer.SendCallback(bridge.BaseURL+"/callback/unknown-token", types.CallbackPayload{
			Status: types.StatusReadyForSave,
			URL:    docServer.HostVersion("ignored.pptx", []byte("x")),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(ack.Error).To(Equal(0))
	})
})

var _ = Describe("Health", func() {
	It("responds once started", func() {
		resp, err := http.Get(bridge.BaseURL + "/health")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})
})
