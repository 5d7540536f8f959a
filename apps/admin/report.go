package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// report prints the students matching search, highest risk first.
func (cli *commandLine) report(search string) error {
	students, err := cli.usrSvc.Students(context.Background(), search)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tATTENDANCE\tAVG GRADE\tLMS\tAID\tRISK\tSCORE")
	for _, sr := range students {
		aid := "no"
		if sr.FinancialAid {
			aid = "yes"
		}
		fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%s\t%s\t%.2f\n",
			sr.Label(), sr.Attendance, sr.AvgGrade, sr.LMSActivity, aid, sr.Risk, sr.Score)
	}
	return w.Flush()
}
