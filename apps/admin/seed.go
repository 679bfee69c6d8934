package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

// rosterFile is the YAML document loaded by `admin seed`.
type rosterFile struct {
	Subjects []string `yaml:"subjects"`
	Sections []string `yaml:"sections"`
	Teachers []struct {
		Name     string   `yaml:"name"`
		Email    string   `yaml:"email"`
		Subjects []string `yaml:"subjects"` // subject names
	} `yaml:"teachers"`
}

type seedReport struct {
	created, skipped int
}

func readRosterFile(path string) (rosterFile, error) {
	var rf rosterFile
	data, err := os.ReadFile(path)
	if err != nil {
		return rf, errors.Wrap(err, "reading roster file")
	}
	if err = yaml.Unmarshal(data, &rf); err != nil {
		return rf, errors.Wrap(err, "parsing roster file")
	}
	return rf, nil
}

// seed creates every record of the roster file that does not exist yet (matched by name).
func (cli *commandLine) seed(path string) error {
	ctx := context.Background()

	rf, err := readRosterFile(path)
	if err != nil {
		return err
	}

	var rep seedReport

	subjects, err := cli.rosterSvc.QuerySubjects(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	subjectIDs := make(map[string]string, len(subjects))
	for _, subj := range subjects {
		subjectIDs[subj.Name] = subj.ID
	}
	for _, name := range rf.Subjects {
		if _, ok := subjectIDs[core.CleanString(name)]; ok {
			rep.skipped++
			continue
		}
		ns := roster.NewSubject{Name: name}
		if err = ns.Validate(ctx, cli.validate, cli.rosterSvc); err != nil {
			return errors.Wrapf(err, "subject %q", name)
		}
		subj, err := cli.rosterSvc.CreateSubject(ctx, ns)
		if err != nil {
			return errors.Wrapf(err, "creating subject %q", name)
		}
		subjectIDs[subj.Name] = subj.ID
		rep.created++
	}

	sections, err := cli.rosterSvc.QuerySections(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	sectionNames := make(map[string]bool, len(sections))
	for _, sec := range sections {
		sectionNames[sec.Name] = true
	}
	for _, name := range rf.Sections {
		if sectionNames[core.CleanString(name)] {
			rep.skipped++
			continue
		}
		ns := roster.NewSection{Name: name}
		if err = ns.Validate(ctx, cli.validate, cli.rosterSvc); err != nil {
			return errors.Wrapf(err, "section %q", name)
		}
		if _, err = cli.rosterSvc.CreateSection(ctx, ns); err != nil {
			return errors.Wrapf(err, "creating section %q", name)
		}
		sectionNames[ns.Name] = true
		rep.created++
	}

	teachers, err := cli.rosterSvc.QueryTeachers(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	teacherNames := make(map[string]bool, len(teachers))
	for _, tchr := range teachers {
		teacherNames[tchr.Name] = true
	}
	for _, t := range rf.Teachers {
		if teacherNames[core.CleanString(t.Name)] {
			rep.skipped++
			continue
		}
		nt := roster.NewTeacher{Name: t.Name, Email: t.Email, QualifiedSubjects: make([]string, 0, len(t.Subjects))}
		for _, subjName := range t.Subjects {
			id, ok := subjectIDs[core.CleanString(subjName)]
			if !ok {
				return errors.Errorf("teacher %q: unknown subject %q", t.Name, subjName)
			}
			nt.QualifiedSubjects = append(nt.QualifiedSubjects, id)
		}
		if err = nt.Validate(ctx, cli.validate, cli.rosterSvc); err != nil {
			return errors.Wrapf(err, "teacher %q", t.Name)
		}
		if _, err = cli.rosterSvc.CreateTeacher(ctx, nt); err != nil {
			return errors.Wrapf(err, "creating teacher %q", t.Name)
		}
		teacherNames[nt.Name] = true
		rep.created++
	}

	cli.logger.Info("roster seeded", core.Fields{"file": path, "created": rep.created, "skipped": rep.skipped})
	fmt.Fprintf(cli.out, "%d record(s) created, %d already present\n", rep.created, rep.skipped)
	return nil
}
