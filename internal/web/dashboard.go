package web

// dashboardHTML is the whole UI: one page, no build step, no external assets.
// It renders the last committed cycle and re-renders on every websocket push,
// falling back to polling when the socket is down.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>pumpscope</title>
<style>
  :root {
    --bg: #0d1117; --panel: #161b22; --border: #30363d;
    --text: #e6edf3; --dim: #8b949e;
    --high: #3fb950; --medium: #d29922; --low: #8b949e;
    --accent: #58a6ff; --warn-bg: #3a2d12; --warn-text: #e3b341;
  }
  * { box-sizing: border-box; }
  body { margin: 0; background: var(--bg); color: var(--text);
         font: 14px/1.5 "SF Mono", SFMono-Regular, Consolas, Menlo, monospace; }
  .wrap { max-width: 1280px; margin: 0 auto; padding: 16px; }
  header { display: flex; align-items: baseline; gap: 12px; flex-wrap: wrap; }
  h1 { font-size: 20px; margin: 0; }
  h1 span { color: var(--accent); }
  #conn { font-size: 12px; color: var(--dim); }
  #conn.live::before { content: "● "; color: var(--high); }
  #conn.poll::before { content: "● "; color: var(--medium); }
  #meta { margin-left: auto; font-size: 12px; color: var(--dim); }
  #warnings { display: none; margin: 12px 0; padding: 8px 12px; border-radius: 6px;
              background: var(--warn-bg); color: var(--warn-text);
              border: 1px solid #5a4a1a; white-space: pre-line; }
  .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
           gap: 8px; margin: 12px 0; }
  .card { background: var(--panel); border: 1px solid var(--border);
          border-radius: 6px; padding: 10px 12px; }
  .card .k { font-size: 11px; color: var(--dim); text-transform: uppercase; }
  .card .v { font-size: 20px; margin-top: 2px; }
  .controls { display: flex; gap: 8px; align-items: flex-end; flex-wrap: wrap;
              background: var(--panel); border: 1px solid var(--border);
              border-radius: 6px; padding: 10px 12px; margin: 12px 0; }
  .controls label { display: flex; flex-direction: column; font-size: 11px;
                    color: var(--dim); gap: 3px; }
  .controls input { width: 96px; background: var(--bg); color: var(--text);
                    border: 1px solid var(--border); border-radius: 4px;
                    padding: 5px 8px; font: inherit; }
  button { background: #21262d; color: var(--text); border: 1px solid var(--border);
           border-radius: 4px; padding: 6px 14px; font: inherit; cursor: pointer; }
  button:hover { border-color: var(--accent); }
  button.primary { background: #1f6feb; border-color: #1f6feb; }
  table { width: 100%; border-collapse: collapse; background: var(--panel);
          border: 1px solid var(--border); border-radius: 6px; overflow: hidden; }
  th, td { padding: 7px 10px; text-align: right; border-bottom: 1px solid var(--border);
           white-space: nowrap; }
  th { font-size: 11px; color: var(--dim); text-transform: uppercase;
       background: #11151c; position: sticky; top: 0; }
  td:nth-child(1), th:nth-child(1) { text-align: center; }
  td:nth-child(2), th:nth-child(2) { text-align: left; }
  td:last-child, th:last-child { text-align: left; }
  tr:last-child td { border-bottom: none; }
  a { color: var(--accent); text-decoration: none; }
  .sym { color: var(--dim); font-size: 12px; }
  .mint { color: var(--dim); font-size: 11px; }
  .score { font-weight: 700; }
  .score.high { color: var(--high); }
  .score.medium { color: var(--medium); }
  .score.low { color: var(--low); }
  .chip { display: inline-block; font-size: 10px; color: var(--dim);
          border: 1px solid var(--border); border-radius: 10px;
          padding: 0 7px; margin-right: 4px; }
  .flag { color: var(--high); }
  #empty { padding: 32px; text-align: center; color: var(--dim); }
</style>
</head>
<body>
<div class="wrap">
  <header>
    <h1>pump<span>scope</span></h1>
    <span id="conn">connecting</span>
    <span id="meta"></span>
  </header>

  <div id="warnings"></div>

  <div class="cards">
    <div class="card"><div class="k">Tokens</div><div class="v" id="c-tokens">–</div></div>
    <div class="card"><div class="k">Avg score</div><div class="v" id="c-avg">–</div></div>
    <div class="card"><div class="k">Max score</div><div class="v" id="c-max">–</div></div>
    <div class="card"><div class="k">Volume (SOL)</div><div class="v" id="c-vol">–</div></div>
    <div class="card"><div class="k">High / Med / Low</div><div class="v" id="c-bands">–</div></div>
  </div>

  <div class="controls">
    <label>Min score <input id="p-score" type="number" step="0.1" min="0"></label>
    <label>Min volume (SOL) <input id="p-vol" type="number" step="50" min="0"></label>
    <label>Max risk <input id="p-risk" type="number" step="0.05" min="0" max="1"></label>
    <label>Refresh (s, 10–300) <input id="p-interval" type="number" step="5" min="10" max="300"></label>
    <button class="primary" id="apply">Apply</button>
    <button id="rescan">Rescan now</button>
  </div>

  <table>
    <thead><tr>
      <th>#</th><th>Token</th><th>Score</th><th>Mom</th><th>Risk</th>
      <th>Buys/min</th><th>Vol 1h</th><th>Buyers</th><th>Creator %</th><th>LP lock %</th>
      <th>Top10 %</th><th>Followers Δ</th><th>Trend Δ</th><th>VWAP</th><th>Dip rec</th><th>Signals</th>
    </tr></thead>
    <tbody id="rows"></tbody>
  </table>
  <div id="empty">waiting for first scan…</div>
</div>

<script>
(function () {
  "use strict";

  var pollTimer = null;
  var ws = null;

  function $(id) { return document.getElementById(id); }
  function num(v) { var n = parseFloat(v); return isNaN(n) ? 0 : n; }
  function esc(s) {
    return String(s == null ? "" : s).replace(/[&<>"']/g, function (c) {
      return { "&": "&amp;", "<": "&lt;", ">": "&gt;", '"': "&quot;", "'": "&#39;" }[c];
    });
  }
  function compact(v) {
    var n = num(v);
    if (n >= 1e6) return (n / 1e6).toFixed(2) + "M";
    if (n >= 1e3) return (n / 1e3).toFixed(1) + "K";
    return n.toFixed(n >= 100 ? 0 : 1);
  }
  function shortMint(m) { return m.length > 12 ? m.slice(0, 4) + "…" + m.slice(-4) : m; }
  function price(v) {
    var n = num(v);
    if (n === 0) return "–";
    return n >= 0.01 ? n.toFixed(4) : n.toExponential(2);
  }

  function render(cycle) {
    if (!cycle) return;
    var s = cycle.summary || {};
    $("c-tokens").textContent = s.tokens || 0;
    $("c-avg").textContent = num(s.avg_score).toFixed(2);
    $("c-max").textContent = num(s.max_score).toFixed(2);
    $("c-vol").textContent = compact(s.total_volume_sol);
    $("c-bands").textContent = (s.high_count || 0) + " / " + (s.medium_count || 0) + " / " + (s.low_count || 0);

    $("meta").textContent = "updated " + new Date(cycle.finished_at).toLocaleTimeString()
      + " · screened " + cycle.screened + "/" + cycle.candidates
      + " · gate " + cycle.passed_primary
      + (cycle.failed_lookups ? " · failed " + cycle.failed_lookups : "");

    var warn = $("warnings");
    if (cycle.warnings && cycle.warnings.length) {
      warn.textContent = cycle.warnings.join("\n");
      warn.style.display = "block";
    } else {
      warn.style.display = "none";
    }

    var tokens = cycle.tokens || [];
    $("empty").style.display = tokens.length ? "none" : "block";
    $("empty").textContent = tokens.length ? "" : "no tokens matched the current filters";

    var html = "";
    for (var i = 0; i < tokens.length; i++) {
      var t = tokens[i], f = t.features || {}, m = t.market || {};
      var chips = "";
      (t.reasons || []).forEach(function (r) { chips += '<span class="chip">' + esc(r) + "</span>"; });
      html += "<tr>"
        + "<td>" + (i + 1) + "</td>"
        + '<td><a href="' + esc(t.url) + '" target="_blank" rel="noopener">' + esc(t.name)
        + '</a> <span class="sym">' + esc(t.symbol) + '</span><br><span class="mint">'
        + esc(shortMint(t.mint)) + "</span></td>"
        + '<td class="score ' + esc(t.band) + '">' + num(t.score).toFixed(2) + "</td>"
        + "<td>" + num(t.momentum_score).toFixed(2) + "</td>"
        + "<td>" + num(t.risk_score).toFixed(2) + "</td>"
        + "<td>" + num(f.buys_per_minute).toFixed(1) + "</td>"
        + "<td>" + compact(f.volume_1h_sol) + "</td>"
        + "<td>" + (m.unique_buyers || 0) + "</td>"
        + "<td>" + num(f.creator_holdings_pct).toFixed(1) + "</td>"
        + "<td>" + num(f.lp_lock_pct).toFixed(1) + "</td>"
        + "<td>" + num(f.top10_concentration_pct).toFixed(1) + "</td>"
        + "<td>" + num(f.follower_delta).toFixed(0) + "</td>"
        + "<td>" + num(f.trend_delta).toFixed(0) + "</td>"
        + "<td>" + price(m.vwap_sol) + "</td>"
        + '<td>' + (f.vwap_recovered ? '<span class="flag">✓</span>' : "–") + "</td>"
        + "<td>" + chips + "</td>"
        + "</tr>";
    }
    $("rows").innerHTML = html;
  }

  function fetchTokens() {
    fetch("/api/tokens").then(function (r) { return r.json(); }).then(function (body) {
      if (body.ready) render(body.cycle);
    }).catch(function () {});
  }

  function loadParams() {
    fetch("/api/params").then(function (r) { return r.json(); }).then(fillParams).catch(function () {});
  }

  function fillParams(p) {
    $("p-score").value = num(p.criteria.min_score);
    $("p-vol").value = num(p.criteria.min_volume_sol);
    $("p-risk").value = num(p.criteria.max_risk_score);
    $("p-interval").value = p.interval_sec;
  }

  function applyParams() {
    var payload = {
      criteria: {
        min_score: num($("p-score").value),
        min_volume_sol: String(num($("p-vol").value)),
        max_risk_score: num($("p-risk").value)
      },
      interval_sec: Math.round(num($("p-interval").value)) || 30
    };
    fetch("/api/params", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(payload)
    }).then(function (r) { return r.json(); }).then(function (p) {
      if (p.criteria) fillParams(p);
      rescan();
    }).catch(function () {});
  }

  function rescan() {
    fetch("/api/refresh", { method: "POST" }).catch(function () {});
  }

  function startPolling() {
    if (pollTimer) return;
    $("conn").textContent = "polling";
    $("conn").className = "poll";
    pollTimer = setInterval(fetchTokens, 15000);
  }

  function stopPolling() {
    if (pollTimer) { clearInterval(pollTimer); pollTimer = null; }
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function () {
      stopPolling();
      $("conn").textContent = "live";
      $("conn").className = "live";
    };
    ws.onmessage = function (ev) {
      try {
        var env = JSON.parse(ev.data);
        if (env.type === "cycle") render(env.cycle);
      } catch (e) {}
    };
    ws.onclose = function () {
      startPolling();
      setTimeout(connect, 3000);
    };
  }

  $("apply").addEventListener("click", applyParams);
  $("rescan").addEventListener("click", rescan);

  loadParams();
  fetchTokens();
  connect();
})();
</script>
</body>
</html>
`
