package uplink

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// AccessPoint is one configured Wi-Fi network. An empty password means open.
type AccessPoint struct {
	SSID     string `mapstructure:"ssid" json:"ssid"`
	Password string `mapstructure:"password" json:"-"`
}

// Station associates the Wi-Fi radio with an access point.
type Station interface {
	// Current returns the SSID the radio is associated with, or "".
	Current(ctx context.Context) (string, error)
	// Connect tries to associate with ap and returns once it succeeded or failed.
	Connect(ctx context.Context, ap AccessPoint) error
}

// CommandRunner runs a host command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// NMCLIStation drives NetworkManager through the nmcli tool.
type NMCLIStation struct {
	iface string
	run   CommandRunner
}

// NewNMCLIStation manages iface ("" lets NetworkManager pick the device).
func NewNMCLIStation(iface string, run CommandRunner) *NMCLIStation {
	if run == nil {
		run = execRunner
	}
	return &NMCLIStation{iface: iface, run: run}
}

func (s *NMCLIStation) Current(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "nmcli", "-t", "-f", "ACTIVE,SSID", "device", "wifi", "list")
	if err != nil {
		return "", err
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		active, ssid, ok := strings.Cut(sc.Text(), ":")
		if ok && active == "yes" {
			return strings.ReplaceAll(ssid, `\:`, ":"), nil
		}
	}
	return "", sc.Err()
}

func (s *NMCLIStation) Connect(ctx context.Context, ap AccessPoint) error {
	args := []string{"device", "wifi", "connect", ap.SSID}
	if ap.Password != "" {
		args = append(args, "password", ap.Password)
	}
	if s.iface != "" {
		args = append(args, "ifname", s.iface)
	}
	_, err := s.run(ctx, "nmcli", args...)
	return err
}

// SimulatedStation pretends to associate with any AP named in Reachable.
type SimulatedStation struct {
	mu        sync.Mutex
	Reachable map[string]bool
	current   string
	attempts  []string
}

// NewSimulatedStation returns a station that can reach the given SSIDs.
func NewSimulatedStation(reachable ...string) *SimulatedStation {
	s := &SimulatedStation{Reachable: map[string]bool{}}
	for _, ssid := range reachable {
		s.Reachable[ssid] = true
	}
	return s
}

func (s *SimulatedStation) Current(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Reachable[s.current] {
		s.current = ""
	}
	return s.current, nil
}

func (s *SimulatedStation) Connect(ctx context.Context, ap AccessPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, ap.SSID)
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Reachable[ap.SSID] {
		return fmt.Errorf("ssid %q not in range", ap.SSID)
	}
	s.current = ap.SSID
	return nil
}

// SetReachable changes whether ssid can be joined. Dropping the current
// network disassociates on the next check.
func (s *SimulatedStation) SetReachable(ssid string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reachable[ssid] = ok
}

// Attempts lists every SSID Connect was called with.
func (s *SimulatedStation) Attempts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.attempts...)
}
