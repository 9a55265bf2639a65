package apk

import (
	"math"
	"strconv"
)

// DefaultCurrentSDK is the Android API level releases are judged against.
// Overridable via config so the baseline does not go stale with the binary.
const DefaultCurrentSDK = 34

// Score weights. Accessibility is a stub signal (see accessibilityScore) but
// its weight is part of the overall contract and must not change silently.
const (
	weightPerformance   = 0.30
	weightSecurity      = 0.30
	weightBestPractices = 0.25
	weightAccessibility = 0.15
)

// dangerousPermissions are the runtime permissions counted against the
// security score.
var dangerousPermissions = map[string]bool{
	"android.permission.READ_CONTACTS":          true,
	"android.permission.WRITE_CONTACTS":         true,
	"android.permission.CAMERA":                 true,
	"android.permission.ACCESS_FINE_LOCATION":   true,
	"android.permission.ACCESS_COARSE_LOCATION": true,
	"android.permission.READ_SMS":               true,
	"android.permission.SEND_SMS":               true,
	"android.permission.RECORD_AUDIO":           true,
	"android.permission.READ_PHONE_STATE":       true,
	"android.permission.CALL_PHONE":             true,
	"android.permission.READ_CALL_LOG":          true,
	"android.permission.WRITE_CALL_LOG":         true,
	"android.permission.BODY_SENSORS":           true,
	"android.permission.READ_EXTERNAL_STORAGE":  true,
	"android.permission.WRITE_EXTERNAL_STORAGE": true,
}

// Scorer turns raw manifest facts into weighted quality scores. Pure and
// deterministic: no I/O, and malformed input degrades to zero values instead
// of failing.
type Scorer struct {
	CurrentSDK int
}

func NewScorer(currentSDK int) Scorer {
	if currentSDK <= 0 {
		currentSDK = DefaultCurrentSDK
	}
	return Scorer{CurrentSDK: currentSDK}
}

// BuildReport assembles the full analysis for one parsed manifest + measured
// size. It always returns a report.
func (sc Scorer) BuildReport(m *Manifest, sizeMB float64) *Report {
	if m == nil {
		m = &Manifest{}
	}
	if sizeMB < 0 {
		sizeMB = 0
	}
	sizeMB = round2(sizeMB)

	sec := buildSecurity(m)
	perf := estimatePerformance(m, sizeMB)

	scores := Scores{
		Performance:   performanceScore(perf),
		Security:      securityScore(sec),
		BestPractices: sc.bestPracticesScore(m.TargetSDK, sec.PermissionCount),
		Accessibility: accessibilityScore(),
	}
	scores.Overall = overallScore(scores)

	appName := m.Label
	if appName == "" {
		appName = "Unknown App"
	}

	return &Report{
		AppName:         appName,
		PackageName:     m.Package,
		VersionName:     m.VersionName,
		VersionCode:     strconv.Itoa(int(m.VersionCode)),
		ApkSizeMB:       sizeMB,
		Scores:          scores,
		Performance:     perf,
		Security:        sec,
		Metadata:        Metadata{MinSDK: m.MinSDK, TargetSDK: m.TargetSDK, Permissions: sec.Permissions, Activities: m.Activities},
		Recommendations: recommendations(scores, perf, sec),
		Status:          "completed",
	}
}

func buildSecurity(m *Manifest) Security {
	perms := m.Permissions
	if perms == nil {
		perms = []string{}
	}
	dangerous := []string{}
	for _, p := range perms {
		if dangerousPermissions[p] {
			dangerous = append(dangerous, p)
		}
	}
	return Security{
		IsSigned:                 m.Signed,
		Debuggable:               m.Debuggable,
		Permissions:              perms,
		DangerousPermissions:     dangerous,
		PermissionCount:          len(perms),
		DangerousPermissionCount: len(dangerous),
	}
}

// estimatePerformance derives launch time and memory from size and activity
// count. Simple heuristics, labelled as estimates in the report.
func estimatePerformance(m *Manifest, sizeMB float64) Performance {
	launch := int64(1000)
	switch {
	case sizeMB > 100:
		launch += 1000
	case sizeMB > 50:
		launch += 500
	case sizeMB > 20:
		launch += 200
	}
	launch += int64(50 * len(m.Activities))

	memory := int(math.Round(50 + sizeMB*0.5))

	return Performance{
		LaunchTimeMS:  launch,
		MemoryUsageMB: memory,
		CPUUsage:      0, // would need a real device run
		ApkSizeMB:     sizeMB,
		Estimated:     true,
	}
}

func performanceScore(p Performance) int {
	score := 100

	switch {
	case p.ApkSizeMB > 100:
		score -= 30
	case p.ApkSizeMB > 50:
		score -= 20
	case p.ApkSizeMB > 20:
		score -= 10
	}

	switch {
	case p.LaunchTimeMS > 3000:
		score -= 20
	case p.LaunchTimeMS > 2000:
		score -= 10
	}

	switch {
	case p.MemoryUsageMB > 200:
		score -= 20
	case p.MemoryUsageMB > 150:
		score -= 10
	}

	return clampScore(score)
}

func securityScore(s Security) int {
	score := 100

	if !s.IsSigned {
		score -= 40
	}
	if s.Debuggable {
		score -= 30
	}
	score -= min(30, s.DangerousPermissionCount*5)

	return clampScore(score)
}

func (sc Scorer) bestPracticesScore(targetSDK, permissionCount int) int {
	score := 100

	current := sc.CurrentSDK
	if current <= 0 {
		current = DefaultCurrentSDK
	}
	if targetSDK < current-2 {
		score -= 30
	} else if targetSDK < current-1 {
		score -= 15
	}

	if permissionCount > 20 {
		score -= 20
	} else if permissionCount > 10 {
		score -= 10
	}

	return clampScore(score)
}

// accessibilityScore is a fixed moderate score. Real accessibility analysis
// would need UI inspection that this pipeline does not do.
func accessibilityScore() int { return 70 }

func overallScore(s Scores) int {
	overall := float64(s.Performance)*weightPerformance +
		float64(s.Security)*weightSecurity +
		float64(s.BestPractices)*weightBestPractices +
		float64(s.Accessibility)*weightAccessibility
	return int(math.Round(overall))
}

// recommendations emits improvement hints for every category scoring below
// 70, in evaluation order: performance, security, best practices.
func recommendations(s Scores, p Performance, sec Security) []string {
	out := []string{}

	if s.Performance < 70 {
		out = append(out, "Optimize APK size using ProGuard/R8 and resource shrinking")
		if p.ApkSizeMB > 50 {
			out = append(out, "Consider using Android App Bundle for smaller downloads")
		}
	}

	if s.Security < 70 {
		if sec.Debuggable {
			out = append(out, "Disable debuggable flag in production builds")
		}
		if sec.DangerousPermissionCount > 5 {
			out = append(out, "Review and minimize dangerous permissions requested")
		}
	}

	if s.BestPractices < 70 {
		out = append(out, "Update target SDK to latest Android version")
	}

	return out
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

