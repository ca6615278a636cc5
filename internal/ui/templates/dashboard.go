package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard is the single-page shell. Each panel lazy-loads its content over
// a datastar SSE endpoint; the scenario sliders are signal-bound and re-run
// the simulation on change.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Revenue Intelligence Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6fa;color:#222}
header{background:#1f2937;color:#fff;padding:1.25rem 2rem}
header h1{margin:0;font-size:1.4rem}
header p{margin:.25rem 0 0;color:#9ca3af;font-size:.9rem}
main{padding:1.5rem 2rem;display:grid;gap:1.5rem}
section{background:#fff;border-radius:8px;padding:1.25rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
section h2{margin-top:0;font-size:1.05rem}
.metric-row{display:flex;gap:1.5rem;flex-wrap:wrap;margin-bottom:1rem}
.metric{display:flex;flex-direction:column;min-width:9rem}
.metric-label{color:#6b7280;font-size:.8rem}
.metric strong{font-size:1.3rem}
.modern-table{width:100%;border-collapse:collapse;font-size:.85rem}
.modern-table th,.modern-table td{padding:.4rem .6rem;text-align:left;border-bottom:1px solid #e5e7eb}
.category-badge{background:#eef2ff;color:#4338ca;border-radius:4px;padding:.1rem .4rem;font-size:.75rem}
.sliders{display:grid;gap:.75rem;max-width:28rem;margin-bottom:1rem}
.sliders label{display:flex;justify-content:space-between;font-size:.85rem}
button{background:#1f2937;color:#fff;border:0;border-radius:6px;padding:.5rem 1rem;cursor:pointer}
</style>
</head>
<body data-signals="{price:0,volume:0,discount:0,showRaw:false}">
<header>
<h1>📊 Revenue Intelligence Dashboard</h1>
<p>E-commerce revenue analytics, driver decomposition and forecasting</p>
<button data-on-click="@get('/sse/refresh-all')">Refresh all</button>
<label><input type="checkbox" data-bind-showRaw data-on-change="@get('/sse/raw-data')"/> Show raw data</label>
</header>
<main>
<section>
<h2>Business Overview</h2>
<div id="overview-content" data-on-load="@get('/sse/overview')">Loading…</div>
</section>
<section data-show="$showRaw">
<h2>Raw Data Sample</h2>
<div id="raw-content">Toggle to load…</div>
</section>
<section>
<h2>Data Quality</h2>
<div id="quality-content" data-on-load="@get('/sse/data-quality')">Loading…</div>
</section>
<section>
<h2>Revenue Drivers</h2>
<div id="drivers-content" data-on-load="@get('/sse/drivers')">Loading…</div>
</section>
<section>
<h2>Forecast</h2>
<div id="forecast-content" data-on-load="@get('/sse/forecast')">Loading…</div>
</section>
<section>
<h2>Scenario Simulator</h2>
<div class="sliders">
<label>Price Change (%) <span data-text="$price"></span></label>
<input type="range" min="-20" max="20" step="1" data-bind-price data-on-change="@get('/sse/scenario')"/>
<label>Volume Change (%) <span data-text="$volume"></span></label>
<input type="range" min="-30" max="30" step="1" data-bind-volume data-on-change="@get('/sse/scenario')"/>
<label>Discount (%) <span data-text="$discount"></span></label>
<input type="range" min="0" max="30" step="1" data-bind-discount data-on-change="@get('/sse/scenario')"/>
</div>
<div id="scenario-content" data-on-load="@get('/sse/scenario')">Loading…</div>
</section>
</main>
</body>
</html>`
