// Package monitoring serves live simulation state over HTTP so a running
// experiment can be inspected from a browser.
package monitoring

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/memhier/system"
)

// A Monitor turns a simulation into a small web server.
type Monitor struct {
	sys        *system.System
	portNumber int
	url        string
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port to serve on. Ports below 1000 are
// rejected and replaced with a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server. "+
				"Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterSystem registers the system to be monitored.
func (m *Monitor) RegisterSystem(sys *system.System) {
	m.sys = sys
}

// StartServer starts serving in the background and returns the URL the
// monitor listens on.
func (m *Monitor) StartServer() (string, error) {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/progress", m.progress)
	r.HandleFunc("/api/list_caches", m.listCaches)
	r.HandleFunc("/api/cache/{name}", m.cacheCounters)
	r.HandleFunc("/api/resource", m.resources)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitor cannot listen: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	m.url = fmt.Sprintf("http://localhost:%d", port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		server := &http.Server{Handler: r}
		_ = server.Serve(listener)
	}()

	return m.url, nil
}

// OpenDashboard opens the monitor in the default browser.
func (m *Monitor) OpenDashboard() error {
	if m.url == "" {
		return fmt.Errorf("monitor is not serving yet")
	}

	return browser.OpenURL(m.url)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]uint64{
		"cycle": m.sys.Simulation().CurrentCycle(),
	})
}

type progressRsp struct {
	Core      string `json:"core"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

func (m *Monitor) progress(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]progressRsp, 0, len(m.sys.Cores()))
	for _, core := range m.sys.Cores() {
		rsp = append(rsp, progressRsp{
			Core:      core.Name(),
			Completed: core.Completed(),
			Total:     core.Total(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listCaches(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.sys.Cores()))
	for _, core := range m.sys.Cores() {
		names = append(names, core.Cache().Name())
	}

	writeJSON(w, names)
}

type counterRsp struct {
	Kind    string `json:"kind"`
	Counter string `json:"counter"`
	Value   uint64 `json:"value"`
}

func (m *Monitor) cacheCounters(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	for _, core := range m.sys.Cores() {
		if core.Cache().Name() != name {
			continue
		}

		rsp := []counterRsp{}
		for _, row := range core.Cache().Stats().Rows() {
			rsp = append(rsp, counterRsp{
				Kind:    row.Kind,
				Counter: row.Counter,
				Value:   row.Value,
			})
		}

		writeJSON(w, rsp)

		return
	}

	http.Error(w, "cache not found", http.StatusNotFound)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) resources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
