package main

import (
	"net/http"
)

func dashboardHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>hostgate</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #0f172a;
            color: #e2e8f0;
            min-height: 100vh;
            padding: 24px;
        }
        .container { max-width: 1100px; margin: 0 auto; }
        h1 { font-size: 2em; margin-bottom: 4px; }
        .subtitle { color: #94a3b8; margin-bottom: 24px; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 16px;
            margin-bottom: 24px;
        }
        .card {
            background: #1e293b;
            border-radius: 10px;
            padding: 20px;
        }
        .label {
            color: #94a3b8;
            font-size: 0.8em;
            text-transform: uppercase;
            letter-spacing: 1px;
            margin-bottom: 8px;
        }
        .value { font-size: 2.2em; font-weight: bold; }
        .allowed { color: #34d399; }
        .denied { color: #f87171; }
        .neutral { color: #60a5fa; }
        .sub { margin-top: 6px; font-size: 0.85em; color: #94a3b8; }
        h2 { font-size: 1.1em; margin-bottom: 12px; }
        table { width: 100%; border-collapse: collapse; }
        th {
            text-align: left;
            padding: 10px;
            color: #94a3b8;
            font-size: 0.8em;
            text-transform: uppercase;
            border-bottom: 1px solid #334155;
        }
        td { padding: 10px; border-bottom: 1px solid #1f2a3d; }
        .bar { height: 6px; background: #334155; border-radius: 3px; overflow: hidden; }
        .bar > div { height: 100%; background: #34d399; }
        .tables { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; }
        @media (max-width: 800px) { .tables { grid-template-columns: 1fr; } }
    </style>
</head>
<body>
    <div class="container">
        <h1>hostgate</h1>
        <p class="subtitle">Per-domain admission, refreshed every 2s</p>

        <div class="stats-grid">
            <div class="card">
                <div class="label">Checks</div>
                <div class="value neutral" id="total">0</div>
            </div>
            <div class="card">
                <div class="label">Allowed</div>
                <div class="value allowed" id="allowed">0</div>
                <div class="sub" id="allowRate">0%</div>
            </div>
            <div class="card">
                <div class="label">Denied</div>
                <div class="value denied" id="denied">0</div>
                <div class="sub" id="denyRate">0%</div>
            </div>
            <div class="card">
                <div class="label">Domains</div>
                <div class="value neutral" id="domains">0</div>
                <div class="sub" id="configures">0 configures</div>
            </div>
        </div>

        <div class="tables">
            <div class="card">
                <h2>Busiest domains</h2>
                <table>
                    <thead><tr><th>Domain</th><th>Checks</th><th>Denied</th><th>Last</th></tr></thead>
                    <tbody id="topDomains"><tr><td colspan="4">Loading...</td></tr></tbody>
                </table>
            </div>
            <div class="card">
                <h2>Buckets</h2>
                <table>
                    <thead><tr><th>Domain</th><th>Tokens</th><th>Policy</th></tr></thead>
                    <tbody id="buckets"><tr><td colspan="3">Loading...</td></tr></tbody>
                </table>
            </div>
        </div>
    </div>

    <script>
        function pct(part, total) {
            return total > 0 ? ((part / total) * 100).toFixed(1) + '%' : '0%';
        }

        function row(cells) {
            return '<tr>' + cells.map(c => '<td>' + c + '</td>').join('') + '</tr>';
        }

        function esc(s) {
            const d = document.createElement('div');
            d.textContent = s;
            return d.innerHTML;
        }

        async function refresh() {
            try {
                const [stats, buckets] = await Promise.all([
                    fetch('/api/stats').then(r => r.json()),
                    fetch('/api/buckets').then(r => r.json()),
                ]);
                renderStats(stats);
                renderBuckets(buckets.buckets || []);
            } catch (error) {
                console.error('refresh failed:', error);
            }
        }

        function renderStats(s) {
            document.getElementById('total').textContent = s.total_requests.toLocaleString();
            document.getElementById('allowed').textContent = s.allowed_requests.toLocaleString();
            document.getElementById('denied').textContent = s.denied_requests.toLocaleString();
            document.getElementById('domains').textContent = s.unique_domains.toLocaleString();
            document.getElementById('allowRate').textContent = pct(s.allowed_requests, s.total_requests);
            document.getElementById('denyRate').textContent = pct(s.denied_requests, s.total_requests);
            document.getElementById('configures').textContent =
                s.configures + ' configures, ' + s.failed_configures + ' rejected';

            const top = s.top_domains || [];
            document.getElementById('topDomains').innerHTML = top.length === 0
                ? row(['No checks yet', '', '', ''])
                : top.map(d => row([
                    '<strong>' + esc(d.domain) + '</strong>',
                    d.total_requests.toLocaleString(),
                    pct(d.denied_requests, d.total_requests),
                    new Date(d.last_request_at).toLocaleTimeString(),
                ])).join('');
        }

        function renderBuckets(list) {
            document.getElementById('buckets').innerHTML = list.length === 0
                ? row(['No buckets yet', '', ''])
                : list.map(b => {
                    const fill = b.cap > 0 ? (b.tokens / b.cap) * 100 : 0;
                    return row([
                        esc(b.key),
                        b.tokens.toFixed(1) + ' <div class="bar"><div style="width:' + fill.toFixed(0) + '%"></div></div>',
                        b.cap + ' / ' + (b.periodMs / 1000) + 's',
                    ]);
                }).join('');
        }

        refresh();
        setInterval(refresh, 2000);
    </script>
</body>
</html>`
