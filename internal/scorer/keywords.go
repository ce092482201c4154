package scorer

// Action verbs that signal achievement-focused writing, grouped by the
// quality they evidence.
var actionVerbs = map[string][]string{
	"leadership":    {"led", "managed", "directed", "supervised", "coordinated", "spearheaded"},
	"achievement":   {"achieved", "accomplished", "delivered", "completed", "executed"},
	"improvement":   {"improved", "enhanced", "optimized", "streamlined", "accelerated"},
	"innovation":    {"created", "designed", "developed", "invented", "pioneered"},
	"analysis":      {"analyzed", "evaluated", "assessed", "identified", "determined"},
	"collaboration": {"collaborated", "partnered", "cooperated", "contributed", "supported"},
}

// defaultTechKeywords is the built-in keyword list used when the caller
// supplies none and the model cannot be consulted.
var defaultTechKeywords = []string{
	"python", "java", "javascript", "c++", "c#", "go", "rust", "php",
	"react", "angular", "vue", "node", "django", "flask", "spring",
	"sql", "mysql", "postgresql", "mongodb", "redis", "elasticsearch",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "git",
	"agile", "scrum", "jira", "linux", "windows", "machine learning",
	"ai", "tensorflow", "pytorch", "pandas", "numpy", "api", "rest",
	"microservices", "cloud", "devops", "ci/cd",
}
