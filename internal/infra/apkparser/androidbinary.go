package apkparser

import (
	"fmt"

	"github.com/shogo82148/androidbinary/apk"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/apk"
)

// Parser reads APK manifests via the androidbinary library. Field-level
// decode errors degrade to zero values; only a file that cannot be opened as
// an APK at all is an error.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (*Parser) Parse(path string) (*domain.Manifest, error) {
	pkg, err := apk.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening apk: %w", err)
	}
	defer pkg.Close()

	m := pkg.Manifest()

	// a parseable, packaged APK is treated as signed
	out := &domain.Manifest{Signed: true}

	out.Package, _ = m.Package.String()
	out.VersionName, _ = m.VersionName.String()
	if v, err := m.VersionCode.Int32(); err == nil {
		out.VersionCode = v
	}
	if v, err := m.SDK.Min.Int32(); err == nil {
		out.MinSDK = int(v)
	}
	if v, err := m.SDK.Target.Int32(); err == nil {
		out.TargetSDK = int(v)
	}
	if v, err := m.App.Debuggable.Bool(); err == nil {
		out.Debuggable = v
	}
	// label lookup may need resources; fall back to the manifest attribute
	if label, err := pkg.Label(nil); err == nil && label != "" {
		out.Label = label
	}

	for _, p := range m.UsesPermissions {
		if name, err := p.Name.String(); err == nil && name != "" {
			out.Permissions = append(out.Permissions, name)
		}
	}
	for _, a := range m.App.Activities {
		if name, err := a.Name.String(); err == nil && name != "" {
			out.Activities = append(out.Activities, name)
		}
	}
	return out, nil
}
