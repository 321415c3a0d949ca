package web

const stylesheet = `
body { font-family: system-ui, sans-serif; margin: 0 1rem; }
#header { display: flex; gap: 1rem; align-items: center; }
#logo { height: 48px; }
.instructions { font-style: italic; }
#controls { display: flex; gap: 1rem; align-items: center; }
#status { color: #555; min-height: 1.2em; }
#map { height: 420px; }
#charts { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; }
#charts img { width: 100%; }
.hint { color: #777; }
`

// script drives the page. Every gesture goes to the server, which owns the
// session state; the page only redraws from the state it is sent back.
const script = `
(function () {
  var cfg = JSON.parse(document.getElementById("config").textContent);
  var state = cfg.state;

  var map = L.map("map", { minZoom: cfg.min_zoom, maxZoom: cfg.max_zoom })
    .setView([state.view.center.lat, state.view.center.lon], state.view.zoom);
  L.tileLayer("https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}", {
    attribution: "Tiles &copy; Esri",
    maxZoom: cfg.max_zoom
  }).addTo(map);
  L.control.scale({ position: "bottomleft" }).addTo(map);

  cfg.markers.forEach(function (m) {
    var label = m.place ? m.title + " (" + m.place + ")" : m.title;
    L.marker([m.coords.lat, m.coords.lon], { title: label })
      .addTo(map)
      .on("click", function () { send("POST", "/api/colonies/" + encodeURIComponent(m.id) + "/click"); })
      .on("mouseover", function () { send("POST", "/api/colonies/" + encodeURIComponent(m.id) + "/hover"); });
  });

  document.getElementById("reset").addEventListener("click", function () {
    send("POST", "/api/reset");
  });
  document.getElementById("metric").addEventListener("change", function (e) {
    send("PUT", "/api/metric", JSON.stringify({ metric: e.target.value }));
  });

  // A chart request that fails falls back to the hint instead of a broken image.
  document.getElementById("colony-img").addEventListener("error", function (e) {
    e.target.hidden = true;
    document.querySelector("#colony-chart .hint").hidden = false;
  });

  function send(method, url, body) {
    var opts = { method: method, credentials: "same-origin" };
    if (body) {
      opts.body = body;
      opts.headers = { "Content-Type": "application/json" };
    }
    fetch(url, opts).then(function (r) { return r.ok ? r.json() : null; }).then(function (s) {
      if (s) { apply(s); }
    });
  }

  function apply(next) {
    if (next.version < state.version) { return; }
    var moved = next.view.zoom !== state.view.zoom ||
      next.view.center.lat !== state.view.center.lat ||
      next.view.center.lon !== state.view.center.lon;
    state = next;
    document.getElementById("status").textContent = state.status;
    document.getElementById("metric").value = state.metric;
    if (moved) {
      map.setView([state.view.center.lat, state.view.center.lon], state.view.zoom);
    }
    var img = document.getElementById("colony-img");
    var hint = document.querySelector("#colony-chart .hint");
    if (state.selection.selected) {
      img.src = "/api/chart/colony.svg?v=" + state.version;
      img.hidden = false;
      hint.hidden = true;
    } else {
      img.hidden = true;
      hint.hidden = false;
    }
  }

  var events = new EventSource("/events");
  events.addEventListener("connected", function (e) { apply(JSON.parse(e.data)); });
  events.addEventListener("state", function (e) { apply(JSON.parse(e.data)); });
})();
`
