package tilerender

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigWriter produces the renderer configuration artifact for one tile and
// returns its path. Implementations must not keep per-tile state; tiles may
// be written in any order.
type ConfigWriter interface {
	WriteConfig(job RenderJobConfig, tile TileDescriptor) (string, error)
}

// INIWriter writes POV-Ray style ini files named tile<N>.ini into Dir.
type INIWriter struct {
	Dir          string
	LibraryPaths []string
}

func (w INIWriter) WriteConfig(job RenderJobConfig, tile TileDescriptor) (string, error) {
	path := filepath.Join(w.Dir, fmt.Sprintf("tile%d.ini", tile.Index))

	err := os.WriteFile(path, []byte(w.render(job, tile)), 0o644)
	if err != nil {
		return "", &ConfigWriteError{Tile: tile.Index, Path: path, Err: err}
	}
	return path, nil
}

func (w INIWriter) render(job RenderJobConfig, tile TileDescriptor) string {
	var b strings.Builder

	b.WriteString("# INI file created by tilerender\n")
	b.WriteString("###############################################\n")
	b.WriteString("#\n")
	fmt.Fprintf(&b, "Input_File_Name=%s\n", job.Scene)
	fmt.Fprintf(&b, "Output_File_Name=%s\n", tile.OutputFile)
	fmt.Fprintf(&b, "Output_File_Type=%s\n", job.withDefaults().Format)

	b.WriteString("#\n# SIZE PARAMETERS\n")
	fmt.Fprintf(&b, "Height=%d\n", job.Height)
	fmt.Fprintf(&b, "Width=%d\n", job.Width)
	fmt.Fprintf(&b, "Start_Column=%d\n", startBound(tile.StartColumn))
	fmt.Fprintf(&b, "End_Column=%d\n", endBound(tile.EndColumn, job.Width))
	fmt.Fprintf(&b, "Start_Row=%d\n", startBound(tile.StartRow))
	fmt.Fprintf(&b, "End_Row=%d\n", endBound(tile.EndRow, job.Height))

	b.WriteString("#\n# QUALITY PARAMETERS\n")
	fmt.Fprintf(&b, "Quality=%d\n", job.Quality)
	if job.Antialias {
		b.WriteString("Antialias=on\n")
	} else {
		b.WriteString("Antialias=off\n")
	}

	b.WriteString("#\n# OTHER PARAMETERS\n")
	b.WriteString(iniBoilerplate)

	b.WriteString("#\n# LIBRARY PARAMETERS\n")
	for _, lib := range w.LibraryPaths {
		fmt.Fprintf(&b, "Library_Path=%s\n", lib)
	}

	permitted := append([]string{"%INSTALLDIR%"}, w.LibraryPaths...)
	permitted = append(permitted, filepath.Dir(job.Scene), w.Dir)

	b.WriteString("[Permitted Input Paths]\n")
	for i, p := range permitted {
		fmt.Fprintf(&b, "\t%d=%s\n", i+1, p)
	}
	b.WriteString("\n[Permitted Output Paths]\n")
	for i, p := range permitted {
		fmt.Fprintf(&b, "\t%d=%s\n", i+1, p)
	}

	return b.String()
}

const iniBoilerplate = `All_Console=Off
Split_Unions=On
Remove_Bounds=On
Display_Gamma=1.0
+D
+MB
-GW
-WL0
-V
Vista_Buffer=on
Draw_Vistas=on
Light_Buffer=on
`

func startBound(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}

func endBound(v, size int) int {
	if v <= 0 || v > size {
		return size
	}
	return v
}
