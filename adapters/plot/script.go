package plot

import "text/template"

type scriptParams struct {
	Title     string
	Label     string
	Reference string
	TrueFile  string
	FalseFile string
	Output    string
}

var boxplotScript = template.Must(template.New("boxplot").Parse(`set terminal pngcairo size 800,600
set output '{{.Output}}'
set title '{{.Title}}'
set ylabel '{{.Label}}'
set style data boxplot
set style boxplot outliers pointtype 7
set style fill solid 0.25 border -1
set xtics ('Tampered' 1, 'Untampered' 2)
set xrange [0.5:2.5]
set key off
set arrow from graph 0, first {{.Reference}} to graph 1, first {{.Reference}} nohead dashtype 2 linecolor rgb 'red'
set label 'reference {{.Reference}}' at graph 0.02, first {{.Reference}} offset 0,0.7
plot '{{.TrueFile}}' using (1):1, \
     '{{.FalseFile}}' using (2):1
`))
