/*
Copyright © 2014 the aquifer-thickness authors.
This file is part of aquifer-thickness.

aquifer-thickness is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

aquifer-thickness is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with aquifer-thickness.  If not, see <http://www.gnu.org/licenses/>.
*/

package aqutil

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

// WebAddress is where StartWebServer listens.
const WebAddress = "localhost:7272"

// configHandler reads the configuration file given in the "config" form
// value and replies with the resulting value of every option as JSON.
// It replies with status 204 if the file cannot be read.
func configHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	Root.PersistentFlags().Set("config", r.Form.Get("config"))
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusNoContent)
		return
	}
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const webTemplate = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Aquifer thickness</title>
	<style>
		body { font-family: sans-serif; margin: 2em auto; max-width: 760px; padding: 0 1em; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #aaa; color: #444; font-size: 80%; margin: .3em; padding-left: 6px; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .3em; width: 55%; }
		.bad { border: 1px solid #c33; }
		.file { border: 1px solid #3a5; }
		.user { border: 1px solid #36c; }
	</style>
</head>
<body>
	<h1>Aquifer thickness</h1>
	<p>Set the options and choose a command. Fields read from the configuration
	file are outlined in green, fields you changed in blue, and a configuration
	file that cannot be read in red.</p>
	{{.}}
<script>
const flags = [...document.querySelectorAll('[data-name]')];
flags.forEach(f => f.children[0].addEventListener("input", () => {
	f.children[0].classList.remove("file");
	f.children[0].classList.add("user");
}));
const cfg = flags.find(f => f.dataset.name == "config").children[0];
cfg.addEventListener("input", () => {
	fetch("/setConfig?config=" + encodeURIComponent(cfg.value)).then(res => {
		if (res.status == 204) {
			cfg.className = "bad";
			return;
		}
		res.json().then(data => {
			cfg.classList.remove("bad");
			for (const f of flags) {
				if (!(f.dataset.name in data)) continue;
				const input = f.children[0];
				const v = JSON.stringify(data[f.dataset.name]).replace(/^"+|"+$/g, '');
				if (input.value != v) {
					input.value = v;
					input.className = "file";
				}
			}
		});
	}).catch(err => console.log("setConfig:", err));
});
</script>
</body>
</html>`

// StartWebServer starts the graphical user interface in a web browser.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", configHandler)

	for _, cmd := range []*cobra.Command{Root, versionCmd, montecarloCmd,
		margatCmd, runCmd, reportCmd, quicklookCmd} {
		cmd.SilenceUsage = true // Usage messages clutter the GUI.
	}

	output := template.Must(template.New("").Parse(webTemplate))
	server := gobra.Server{Root: Root, ServerAddress: WebAddress, AllowCORS: false, HTML: output}
	logrus.WithField("address", "http://"+WebAddress).Info("starting the user interface")
	if err := open.Run("http://" + WebAddress); err != nil {
		logrus.Warnf("could not open a browser (%v); please visit http://%s", err, WebAddress)
	}
	server.Start()
}
