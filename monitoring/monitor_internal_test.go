package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memhier/system"
)

var _ = Describe("Monitor", func() {
	var (
		m   *Monitor
		sys *system.System
	)

	BeforeEach(func() {
		sys = system.MakeBuilder().
			WithNumCores(2).
			WithRequestsPerCore(4).
			Build("Sys")

		m = NewMonitor()
		m.RegisterSystem(sys)
	})

	It("should report the current cycle", func() {
		rec := httptest.NewRecorder()
		m.now(rec, httptest.NewRequest("GET", "/api/now", nil))

		var rsp map[string]uint64
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveKey("cycle"))
	})

	It("should report per-core progress", func() {
		rec := httptest.NewRecorder()
		m.progress(rec, httptest.NewRequest("GET", "/api/progress", nil))

		var rsp []progressRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0].Total).To(Equal(4))
		Expect(rsp[0].Completed).To(Equal(0))
	})

	It("should list the caches", func() {
		rec := httptest.NewRecorder()
		m.listCaches(rec, httptest.NewRequest("GET", "/api/list_caches", nil))

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(ConsistOf("Sys.Core0.L1", "Sys.Core1.L1"))
	})

	It("should serve counters over HTTP", func() {
		Expect(sys.Run(100000)).To(Succeed())

		url, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(HavePrefix("http://localhost:"))
	})
})
