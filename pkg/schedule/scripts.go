package schedule

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/blocknetlab/shadowforge/pkg/netdesc"
)

// wrapperTemplate is the behavior-script wrapper. It exports the agent's
// attribute map verbatim, then hands off to the referenced script. The
// wrapped script is opaque to the compiler; only its name and attributes
// travel through here.
var wrapperTemplate = template.Must(template.New("wrapper").Parse(`#!/bin/bash
# Generated wrapper for agent {{.AgentID}}. Regenerated on every compile;
# edits will be lost.
set -eu

export AGENT_ID="{{.AgentID}}"
export AGENT_IP="{{.AgentIP}}"
export DAEMON_RPC="{{.DaemonRPC}}"
export WALLET_RPC="{{.WalletRPC}}"
export COORD_DIR="{{.CoordDir}}"
{{range .Attrs}}export ATTR_{{.Key}}="{{.Value}}"
{{end}}
exec "{{.ScriptPath}}" "$@"
`))

type wrapperData struct {
	AgentID    string
	AgentIP    string
	DaemonRPC  string
	WalletRPC  string
	CoordDir   string
	Attrs      []envAttr
	ScriptPath string
}

type envAttr struct {
	Key   string
	Value string
}

// renderWrapper produces the wrapper script text for one agent.
func renderWrapper(g *Generator, a *netdesc.Agent) string {
	scriptName, _ := a.Attrs.Get("script")
	if scriptName == "" {
		scriptName = "behavior.py"
	}

	daemonRPC := fmt.Sprintf("%s:%d", a.IP, a.RPCPort)
	if !a.Role.HasDaemon() {
		daemonRPC = g.remoteDaemon
	}

	data := wrapperData{
		AgentID:    a.ID,
		AgentIP:    a.IP,
		DaemonRPC:  daemonRPC,
		WalletRPC:  fmt.Sprintf("%s:%d", a.IP, a.WalletPort),
		CoordDir:   g.params.CoordDir,
		ScriptPath: g.params.ScriptDir + "/" + scriptName,
	}
	for _, kv := range a.Attrs {
		data.Attrs = append(data.Attrs, envAttr{Key: envKey(kv.Key), Value: kv.Value})
	}

	var sb strings.Builder
	// The template only fails on a broken template, caught at init.
	_ = wrapperTemplate.Execute(&sb, data)
	return sb.String()
}

// envKey uppercases an attribute key into shell-safe form.
func envKey(k string) string {
	k = strings.ToUpper(k)
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, k)
}
