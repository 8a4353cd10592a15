// Package viz renders the active graph for humans: Graphviz dot or a
// self-contained HTML page.
package viz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bissli/mnemon/internal/store"
)

var edgeColors = map[store.EdgeType]string{
	store.EdgeTemporal: "#8888cc",
	store.EdgeEntity:   "#44aa44",
	store.EdgeCausal:   "#cc4444",
	store.EdgeSemantic: "#cc8800",
}

// Dot renders insights and edges as a Graphviz digraph.
func Dot(insights []*store.Insight, edges []*store.Edge) string {
	var b strings.Builder
	b.WriteString("digraph mnemon {\n")
	b.WriteString("  rankdir=LR;\n  node [shape=box, style=rounded, fontsize=10];\n")

	for _, in := range insights {
		label := in.Content
		if len(label) > 48 {
			label = label[:45] + "..."
		}
		label = strings.ReplaceAll(label, `"`, `\"`)
		fmt.Fprintf(&b, "  %q [label=\"%s\\n[%s i%d]\"];\n", in.ID, label, in.Category, in.Importance)
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  %q -> %q [color=%q, label=%q, weight=%d];\n",
			e.SourceID, e.TargetID, edgeColors[e.Type], string(e.Type), int(e.Weight*10)+1)
	}
	b.WriteString("}\n")
	return b.String()
}

type htmlNode struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Category   string `json:"category"`
	Importance int    `json:"importance"`
}

type htmlEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// HTML renders a single-file force-layout page over the embedded graph.
func HTML(insights []*store.Insight, edges []*store.Edge) string {
	nodes := make([]htmlNode, 0, len(insights))
	for _, in := range insights {
		label := in.Content
		if len(label) > 60 {
			label = label[:57] + "..."
		}
		nodes = append(nodes, htmlNode{ID: in.ID, Label: label, Category: string(in.Category), Importance: in.Importance})
	}
	links := make([]htmlEdge, 0, len(edges))
	for _, e := range edges {
		links = append(links, htmlEdge{Source: e.SourceID, Target: e.TargetID, Type: string(e.Type), Weight: e.Weight})
	}

	payload, _ := json.Marshal(map[string]any{"nodes": nodes, "edges": links})
	return strings.Replace(htmlTemplate, "__GRAPH__", string(payload), 1)
}

const htmlTemplate = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>mnemon graph</title>
<style>
  body { margin: 0; font: 12px sans-serif; background: #fafafa; }
  canvas { display: block; }
  #legend { position: fixed; top: 8px; left: 8px; background: #fff; padding: 6px 10px; border: 1px solid #ddd; }
  .sw { display: inline-block; width: 10px; height: 10px; margin-right: 4px; }
</style>
</head>
<body>
<div id="legend">
  <div><span class="sw" style="background:#8888cc"></span>temporal</div>
  <div><span class="sw" style="background:#44aa44"></span>entity</div>
  <div><span class="sw" style="background:#cc4444"></span>causal</div>
  <div><span class="sw" style="background:#cc8800"></span>semantic</div>
</div>
<canvas id="c"></canvas>
<script>
const graph = __GRAPH__;
const colors = {temporal:"#8888cc", entity:"#44aa44", causal:"#cc4444", semantic:"#cc8800"};
const canvas = document.getElementById("c");
const ctx = canvas.getContext("2d");
canvas.width = innerWidth; canvas.height = innerHeight;
const nodes = graph.nodes.map((n, i) => ({...n,
  x: innerWidth/2 + 200*Math.cos(2*Math.PI*i/graph.nodes.length),
  y: innerHeight/2 + 200*Math.sin(2*Math.PI*i/graph.nodes.length),
  vx: 0, vy: 0}));
const byId = Object.fromEntries(nodes.map(n => [n.id, n]));
const edges = graph.edges.filter(e => byId[e.source] && byId[e.target]);
function tick() {
  for (const a of nodes) for (const b of nodes) {
    if (a === b) continue;
    const dx = a.x-b.x, dy = a.y-b.y, d2 = Math.max(dx*dx+dy*dy, 25);
    a.vx += 800*dx/d2/Math.sqrt(d2); a.vy += 800*dy/d2/Math.sqrt(d2);
  }
  for (const e of edges) {
    const s = byId[e.source], t = byId[e.target];
    const dx = t.x-s.x, dy = t.y-s.y;
    const f = 0.002*(1+e.weight);
    s.vx += f*dx; s.vy += f*dy; t.vx -= f*dx; t.vy -= f*dy;
  }
  for (const n of nodes) {
    n.vx += (innerWidth/2-n.x)*0.0005; n.vy += (innerHeight/2-n.y)*0.0005;
    n.x += n.vx *= 0.85; n.y += n.vy *= 0.85;
  }
  draw();
  requestAnimationFrame(tick);
}
function draw() {
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  for (const e of edges) {
    const s = byId[e.source], t = byId[e.target];
    ctx.strokeStyle = colors[e.type] || "#999";
    ctx.globalAlpha = 0.5;
    ctx.beginPath(); ctx.moveTo(s.x, s.y); ctx.lineTo(t.x, t.y); ctx.stroke();
  }
  ctx.globalAlpha = 1;
  for (const n of nodes) {
    ctx.fillStyle = "#335";
    ctx.beginPath(); ctx.arc(n.x, n.y, 3 + n.importance, 0, 2*Math.PI); ctx.fill();
    ctx.fillStyle = "#222";
    ctx.fillText(n.label, n.x + 8, n.y + 3);
  }
}
tick();
</script>
</body>
</html>
`
