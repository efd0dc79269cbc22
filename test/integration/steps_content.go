package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/mediamind-ai/mediamind/pkg/site"
)

func (s *StepsContext) registerContentSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am authenticated as "([^"]*)"$`, s.iAmAuthenticatedAs)
	sc.Step(`^I use the token "([^"]*)"$`, s.iUseTheToken)
	sc.Step(`^a content item "([^"]*)" exists with status "([^"]*)"$`, s.aContentItemExists)
	sc.Step(`^the content item "([^"]*)" should have status "([^"]*)"$`, s.theContentItemShouldHaveStatus)
	sc.Step(`^the content item "([^"]*)" should not exist$`, s.theContentItemShouldNotExist)
	sc.Step(`^(\d+) contact messages? should be stored$`, s.contactMessagesShouldBeStored)
}

func (s *StepsContext) iAmAuthenticatedAs(subject string) error {
	token, err := s.tc.Tokens.Issue(subject, time.Minute)
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iUseTheToken(token string) error {
	s.authToken = token
	return nil
}

func (s *StepsContext) aContentItemExists(title, status string) error {
	item, err := site.NewContentSchema(s.tc.DB).Create(context.Background(), map[string]interface{}{
		"title":  title,
		"body":   "Body of " + title,
		"status": status,
	})
	if err != nil {
		return err
	}
	s.ids[title] = item.Key()
	return nil
}

func (s *StepsContext) findContent(title string) ([]map[string]interface{}, error) {
	items, err := site.NewContentSchema(s.tc.DB).WhereEq(context.Background(), "title", title)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToMap())
	}
	return out, nil
}

func (s *StepsContext) theContentItemShouldHaveStatus(title, status string) error {
	items, err := s.findContent(title)
	if err != nil {
		return err
	}
	if len(items) != 1 {
		return fmt.Errorf("expected one content item %q, found %d", title, len(items))
	}
	if got := fmt.Sprint(items[0]["status"]); got != status {
		return fmt.Errorf("expected %q to have status %q, got %q", title, status, got)
	}
	return nil
}

func (s *StepsContext) theContentItemShouldNotExist(title string) error {
	items, err := s.findContent(title)
	if err != nil {
		return err
	}
	if len(items) != 0 {
		return fmt.Errorf("expected no content item %q, found %d", title, len(items))
	}
	return nil
}

func (s *StepsContext) contactMessagesShouldBeStored(n int) error {
	var count int64
	if err := s.tc.DB.Table("contact_messages").Count(&count).Error; err != nil {
		return err
	}
	if count != int64(n) {
		return fmt.Errorf("expected %d contact messages, found %d", n, count)
	}
	return nil
}
