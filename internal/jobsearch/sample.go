package jobsearch

// SamplePostings returns the built-in postings used when the JSearch API is
// unavailable or no key is configured. The run degrades to these with a
// warning instead of failing.
func SamplePostings() *Postings {
	return &Postings{
		Items: []*Posting{
			{
				ID:          "sample_1",
				Title:       "Senior Python Developer",
				Company:     "TechFlow Solutions",
				Description: "Build scalable backend services with Python, FastAPI, and PostgreSQL. 5+ years experience. Remote-friendly.",
				URL:         "https://example.com/jobs/python-senior-1",
			},
			{
				ID:          "sample_2",
				Title:       "Backend Engineer - Python",
				Company:     "DataDrive Inc.",
				Description: "Design APIs and data pipelines. Python, Docker, Kubernetes, AWS. Strong software design skills required.",
				URL:         "https://example.com/jobs/python-backend-2",
			},
			{
				ID:          "sample_3",
				Title:       "Software Engineer - Python / ML",
				Company:     "AI Ventures",
				Description: "Work on ML pipelines and production systems. Python, PyTorch, SQL. Interest in NLP a plus.",
				URL:         "https://example.com/jobs/python-ml-3",
			},
		},
	}
}
