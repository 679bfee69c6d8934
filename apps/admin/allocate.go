package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
)

type allocateOutput struct {
	Run  allocation.Run         `json:"run"`
	Save *allocation.SaveResult `json:"save,omitempty"`
}

func (cli *commandLine) allocate(save, asJSON bool) error {
	ctx := context.Background()

	run, err := cli.allocSvc.Generate(ctx)
	if err != nil {
		return errors.Wrap(err, "generating allocation")
	}

	out := allocateOutput{Run: run}
	if save {
		res, err := cli.allocSvc.Save(ctx, run.Allocation)
		if err != nil {
			return errors.Wrap(err, "saving allocation")
		}
		out.Save = &res
	}

	if asJSON {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	cli.printAllocation(out)
	return nil
}

func (cli *commandLine) printAllocation(out allocateOutput) {
	alloc := out.Run.Allocation

	subjects := make([]string, 0, len(alloc))
	for subj := range alloc {
		subjects = append(subjects, subj)
	}
	sort.Strings(subjects)

	for _, subj := range subjects {
		fmt.Fprintln(cli.out, subj)

		buckets := alloc[subj]
		names := make([]string, 0, len(buckets))
		for name := range buckets {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sections := append([]string(nil), buckets[name]...)
			sort.Strings(sections)
			fmt.Fprintf(cli.out, "  %s (%d): %s\n", name, len(sections), strings.Join(sections, ", "))
		}
	}

	if len(out.Run.Unassigned) > 0 {
		fmt.Fprintf(cli.out, "\nno eligible teacher: %s\n", strings.Join(out.Run.Unassigned, ", "))
	}
	if out.Save != nil {
		fmt.Fprintf(cli.out, "\nsaved run %s: %d allotment(s), %d teacher(s) updated\n",
			out.Save.RunID, out.Save.Allotments, out.Save.UpdatedTeachers)
	}
}
