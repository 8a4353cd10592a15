package extraction

import (
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// techDictionary is the bundled list of well-known technology and product
// names matched case-sensitively against insight content.
var techDictionary = []string{
	// Languages
	"Go", "Golang", "Python", "Rust", "Java", "Kotlin", "Swift", "TypeScript",
	"JavaScript", "Ruby", "Elixir", "Erlang", "Haskell", "Scala", "Clojure",
	"Zig", "Lua", "Perl", "PHP", "Julia", "Dart", "OCaml", "Fortran",
	// Databases & storage
	"PostgreSQL", "Postgres", "MySQL", "MariaDB", "SQLite", "MongoDB",
	"Redis", "Memcached", "Cassandra", "ScyllaDB", "CockroachDB", "DynamoDB",
	"Elasticsearch", "OpenSearch", "ClickHouse", "DuckDB", "InfluxDB",
	"TimescaleDB", "Neo4j", "ArangoDB", "Dgraph", "RocksDB", "LevelDB",
	"BoltDB", "BadgerDB", "Qdrant", "Milvus", "Weaviate", "Pinecone",
	"Chroma", "pgvector", "Faiss", "Annoy", "LanceDB", "Supabase",
	"Firebase", "Firestore", "BigQuery", "Snowflake", "Databricks",
	// Messaging & streaming
	"Kafka", "RabbitMQ", "NATS", "Pulsar", "ZeroMQ", "MQTT", "ActiveMQ",
	"Kinesis", "EventBridge", "Celery",
	// Infra & orchestration
	"Kubernetes", "Docker", "Podman", "containerd", "Helm", "Terraform",
	"Pulumi", "Ansible", "Vagrant", "Nomad", "Consul", "Vault", "etcd",
	"ZooKeeper", "Istio", "Envoy", "Linkerd", "Traefik", "Nginx", "Caddy",
	"HAProxy", "Apache", "Tomcat",
	// Cloud
	"AWS", "Azure", "GCP", "Lambda", "Fargate", "CloudFront", "Cloudflare",
	"Heroku", "Vercel", "Netlify", "DigitalOcean", "Linode",
	// Observability
	"Prometheus", "Grafana", "Loki", "Jaeger", "Zipkin", "OpenTelemetry",
	"Datadog", "Sentry", "PagerDuty", "Splunk", "Kibana", "Logstash",
	// Web & frameworks
	"React", "Vue", "Angular", "Svelte", "Next.js", "Nuxt", "Astro",
	"Django", "Flask", "FastAPI", "Rails", "Laravel", "Spring", "Express",
	"Fastify", "Gin", "Echo", "Fiber", "GraphQL", "gRPC", "Protobuf",
	"WebSocket", "WebAssembly", "Electron", "Tauri", "Flutter",
	// ML & AI
	"PyTorch", "TensorFlow", "JAX", "Keras", "ONNX", "Hugging Face",
	"Transformers", "LangChain", "LlamaIndex", "OpenAI", "Anthropic",
	"Claude", "ChatGPT", "Gemini", "Llama", "Mistral", "Ollama", "vLLM",
	"CUDA", "cuDNN", "TensorRT", "scikit-learn", "NumPy", "SciPy",
	"Pandas", "Polars", "Jupyter", "Matplotlib",
	// Tools & platforms
	"Git", "GitHub", "GitLab", "Bitbucket", "Jenkins", "CircleCI",
	"ArgoCD", "Bazel", "Gradle", "Maven", "CMake", "Webpack", "Vite",
	"Babel", "ESLint", "Prettier", "Jest", "Cypress", "Playwright",
	"Selenium", "Postman", "Swagger", "OpenAPI", "Jira", "Confluence",
	"Slack", "Discord", "Notion", "Figma", "VSCode", "Vim", "Neovim",
	"Emacs", "IntelliJ", "Xcode", "tmux", "zsh", "Bash", "PowerShell",
	// Protocols & formats
	"HTTP", "HTTPS", "TCP", "UDP", "QUIC", "DNS", "TLS", "SSH", "OAuth",
	"JWT", "SAML", "OpenID", "JSON", "YAML", "TOML", "XML", "CSV",
	"Parquet", "Avro", "MessagePack", "CBOR", "REST", "SOAP",
	// OS & runtimes
	"Linux", "Ubuntu", "Debian", "Fedora", "Alpine", "FreeBSD", "macOS",
	"Windows", "Android", "iOS", "systemd", "WSL", "Node.js", "Deno",
	"Bun", "JVM", "GraalVM", "Wasm",
}

var (
	dictOnce sync.Once
	dictAC   *ahocorasick.Automaton
	dictErr  error
)

// dictionary returns the shared Aho-Corasick automaton over the technical
// lexicon. Built once; the pattern list is static.
func dictionary() (*ahocorasick.Automaton, error) {
	dictOnce.Do(func() {
		dictAC, dictErr = ahocorasick.NewBuilder().
			AddStrings(techDictionary).
			SetMatchKind(ahocorasick.LeftmostLongest).
			SetPrefilter(true).
			Build()
	})
	return dictAC, dictErr
}

// scanDictionary finds technical-dictionary names mentioned in content.
// Matches are case-sensitive and must sit on word boundaries so "Go" does
// not fire inside "Google".
func scanDictionary(content string) []string {
	ac, err := dictionary()
	if err != nil {
		return nil
	}

	var found []string
	for _, m := range ac.FindAllOverlapping([]byte(content)) {
		if !onWordBoundary(content, m.Start, m.End) {
			continue
		}
		found = append(found, techDictionary[m.PatternID])
	}
	return found
}

// onWordBoundary reports whether content[start:end] is delimited by
// non-identifier runes on both sides.
func onWordBoundary(content string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(content[:start])
		if isIdentRune(r) {
			return false
		}
	}
	if end < len(content) {
		r, _ := utf8.DecodeRuneInString(content[end:])
		if isIdentRune(r) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
