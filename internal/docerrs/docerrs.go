// Package docerrs holds the typed error structs used across mdstream,
// one per failure mode, in the style of internal/specterrs rather than
// sentinel errors or a generic wrapper package.
package docerrs

import "fmt"

// PatchTargetMissingError indicates a patch addressed a block or node
// id that the store has no record of.
type PatchTargetMissingError struct {
	Kind string
	At   string
}

func (e *PatchTargetMissingError) Error() string {
	return fmt.Sprintf("patch target missing for %s patch at %q", e.Kind, e.At)
}

// ReorderCountInvalidError indicates a Reorder patch's Count was < 1.
type ReorderCountInvalidError struct {
	Count int
}

func (e *ReorderCountInvalidError) Error() string {
	return fmt.Sprintf("reorder count must be >= 1, got %d", e.Count)
}

// ChildrenUniquenessViolationError indicates an insertChild would have
// produced two children sharing an id under the same parent.
type ChildrenUniquenessViolationError struct {
	ParentID string
	ChildID  string
}

func (e *ChildrenUniquenessViolationError) Error() string {
	return fmt.Sprintf("node %q is already a child of %q", e.ChildID, e.ParentID)
}

// CodeLineNormalizationError indicates a code-fence block's line
// children drifted from the "<parent>::line:<index>" contiguous
// numbering invariant.
type CodeLineNormalizationError struct {
	ParentID string
	Index    int
	Got      string
	Want     string
}

func (e *CodeLineNormalizationError) Error() string {
	return fmt.Sprintf(
		"code-line normalization broken under %q at index %d: got %q want %q",
		e.ParentID, e.Index, e.Got, e.Want,
	)
}

// AppendLinesGapError indicates an appendLines patch would leave a gap
// in a code-fence block's line sequence.
type AppendLinesGapError struct {
	ParentID   string
	StartIndex int
	Existing   int
}

func (e *AppendLinesGapError) Error() string {
	return fmt.Sprintf(
		"appendLines startIndex %d leaves a gap after %d existing lines under %q",
		e.StartIndex, e.Existing, e.ParentID,
	)
}

// ConfigInvalidError indicates mdstream.yaml failed validation.
type ConfigInvalidError struct {
	Path   string
	Reason string
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("invalid configuration in %s: %s", e.Path, e.Reason)
}

// ThemeNotFoundError indicates a requested theme name has no entry in
// the theme registry.
type ThemeNotFoundError struct {
	Name      string
	Available []string
}

func (e *ThemeNotFoundError) Error() string {
	return fmt.Sprintf("theme not found: %s (available: %v)", e.Name, e.Available)
}

// UnsupportedComponentError indicates an MDX component name has no
// registry entry in the compile service.
type UnsupportedComponentError struct {
	Component string
}

func (e *UnsupportedComponentError) Error() string {
	return fmt.Sprintf("unsupported MDX component: %s", e.Component)
}

// WatchSourceUnreadableError indicates the watched file could not be
// read after a filesystem event.
type WatchSourceUnreadableError struct {
	Path string
	Err  error
}

func (e *WatchSourceUnreadableError) Error() string {
	return fmt.Sprintf("could not read watched file %s: %v", e.Path, e.Err)
}
