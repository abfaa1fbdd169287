package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/desk-clock/internal/mqtt"
	"github.com/sweeney/desk-clock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onOff": onOff,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Desk Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.screens { display: flex; gap: 1em; }
.screen { flex: 1; background: #000; color: #fff; min-height: 6em; padding: 0.5em; margin: 0; font-size: 1.2em; }
.screen.off { background: #222; }
.screen .hl { outline: 1px solid #fff; }
.connected { color: green; }
.disconnected { color: red; }
.alarm { color: red; font-weight: bold; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Desk Clock{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<div class="screens">
{{with .Screens}}<pre id="left" class="screen{{if not .On}} off{{end}}">{{range $i, $l := .Left.Lines}}{{if eq $i $.Screens.Left.Highlight}}<span class="hl">{{$l}}</span>{{else}}{{$l}}{{end}}
{{end}}</pre>
<pre id="right" class="screen{{if not .On}} off{{end}}">{{range $i, $l := .Right.Lines}}{{if eq $i $.Screens.Right.Highlight}}<span class="hl">{{$l}}</span>{{else}}{{$l}}{{end}}
{{end}}</pre>{{end}}
</div>

<h2>Clock</h2>
<table>
<tr><th>Mode</th><td>{{.Clock.Mode}}</td></tr>
<tr><th>Time</th><td>{{.Clock.Time}} {{.Clock.Date}}</td></tr>
<tr><th>Alarm</th><td{{if .Clock.AlarmActive}} class="alarm"{{end}}>{{.Clock.Settings.Alarm.At}} ({{onOff .Clock.Settings.Alarm.Enabled}}){{if .Clock.AlarmActive}} RINGING{{end}}</td></tr>
<tr><th>Sleep window</th><td>{{.Clock.Settings.Sleep.Start}} - {{.Clock.Settings.Sleep.End}} ({{onOff .Clock.Settings.Sleep.Enabled}}){{if .Clock.Sleeping}} sleeping{{end}}</td></tr>
<tr><th>Battery</th><td>{{.Clock.Battery}}%</td></tr>
<tr><th>Poll</th><td>{{.Actuation.Poll}}</td></tr>
{{with .LastEvent}}<tr><th>Last event</th><td>{{.Type}} at {{.Time}} {{.Date}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
<tr><th>Alarm on</th><td>{{.Counts.AlarmsOn}}</td></tr>
<tr><th>Alarm off</th><td>{{.Counts.AlarmsOff}}</td></tr>
<tr><th>Sleep start</th><td>{{.Counts.SleepStarts}}</td></tr>
<tr><th>Sleep end</th><td>{{.Counts.SleepEnds}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Instance</th><td>{{.Config.InstanceID}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/screen.json">screens</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Topic}}";
  var dot = document.getElementById("live-dot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function paint(id, screen, on) {
    var el = document.getElementById(id);
    el.className = on ? "screen" : "screen off";
    el.textContent = screen.lines.join("\n");
  }

  function refresh() {
    fetch("/screen.json").then(function(r) { return r.json(); }).then(function(s) {
      paint("left", s.left, s.on);
      paint("right", s.right, s.on);
    }).catch(function() {});
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function() {
    refresh();
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Screens Screens
		Topic   string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Screens:  RenderScreens(snap.Clock),
		Topic:    mqtt.Topic,
	}
	indexTmpl.Execute(w, data)
}
