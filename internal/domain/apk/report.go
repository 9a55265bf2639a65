package apk

import "time"

// Report is the full analysis of one uploaded APK. Computed once per
// artifact and never mutated afterwards.
type Report struct {
	ID              string      `json:"id"`
	AppName         string      `json:"appName"`
	PackageName     string      `json:"packageName"`
	VersionName     string      `json:"versionName"`
	VersionCode     string      `json:"versionCode"`
	ApkSizeMB       float64     `json:"apkSize"`
	Scores          Scores      `json:"scores"`
	Performance     Performance `json:"performance"`
	Security        Security    `json:"security"`
	Metadata        Metadata    `json:"metadata"`
	Recommendations []string    `json:"recommendations"`
	ArtifactURL     string      `json:"artifact_url,omitempty"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Scores are 0-100 integers per category.
type Scores struct {
	Overall       int `json:"overall"`
	Performance   int `json:"performance"`
	Security      int `json:"security"`
	BestPractices int `json:"bestPractices"`
	Accessibility int `json:"accessibility"`
}

// Performance figures are heuristic estimates derived from the artifact,
// not device measurements.
type Performance struct {
	LaunchTimeMS  int64   `json:"launchTime"`
	MemoryUsageMB int     `json:"memoryUsage"`
	CPUUsage      float64 `json:"cpuUsage"`
	ApkSizeMB     float64 `json:"apkSizeMB"`
	Estimated     bool    `json:"estimated"`
}

// Security value object
type Security struct {
	IsSigned                 bool     `json:"isSigned"`
	Debuggable               bool     `json:"debuggable"`
	Permissions              []string `json:"permissions"`
	DangerousPermissions     []string `json:"dangerousPermissions"`
	PermissionCount          int      `json:"permissionCount"`
	DangerousPermissionCount int      `json:"dangerousPermissionCount"`
}

// Metadata keeps the raw manifest facts the scores were derived from.
type Metadata struct {
	MinSDK      int      `json:"minSdk"`
	TargetSDK   int      `json:"targetSdk"`
	Permissions []string `json:"permissions"`
	Activities  []string `json:"activities"`
}

// Manifest is the parser-neutral view of an APK manifest. Absent fields stay
// at their zero value; scoring treats zeros as "unknown" and proceeds.
type Manifest struct {
	Package     string
	Label       string
	VersionName string
	VersionCode int32
	MinSDK      int
	TargetSDK   int
	Debuggable  bool
	Signed      bool
	Permissions []string
	Activities  []string
}
