package sqlinline

const QFetchRunnableJobs = `--sql 3f8b2a41-9c57-4d6e-8a02-b14f7d93c5e6
select
  id,
  store_id,
  user_id,
  type,
  provider,
  coalesce(provider_model, ''),
  status,
  input,
  coalesce(provider_ref, ''),
  progress,
  coalesce(error_message, ''),
  coalesce(error_code, ''),
  created_at,
  started_at,
  completed_at,
  updated_at
from media_jobs
where status = 'queued'
   or (type = 'video' and status = 'processing')
order by created_at asc
limit $1::int;
`

const QClaimQueuedJob = `--sql 9d41c7f0-2b8e-4a35-b6d9-07e3a5f18c24
update media_jobs
set status = 'processing',
    started_at = now(),
    updated_at = now()
where id = $1::uuid
  and status = 'queued'
returning id;
`

const QSetVideoOperation = `--sql 5a0e93d2-7f46-4c81-9b3a-c62d08e4f715
update media_jobs
set provider_ref = $2::text,
    progress = greatest(progress, $3::int),
    updated_at = now()
where id = $1::uuid
  and status = 'processing';
`

const QSetJobProgress = `--sql b7c25e18-4d93-4f6a-a05c-391fd8b20e47
update media_jobs
set progress = greatest(progress, $2::int),
    updated_at = now()
where id = $1::uuid
  and status = 'processing';
`

const QMarkJobDone = `--sql 1e6a48bc-03d7-4592-bf18-72c4a9d0e385
update media_jobs
set status = 'done',
    progress = 100,
    result = $2::jsonb,
    completed_at = now(),
    updated_at = now()
where id = $1::uuid
  and status = 'processing';
`

const QMarkJobFailed = `--sql c48f17a9-6e20-4bd3-85f4-d90b36c2e851
update media_jobs
set status = 'failed',
    error_message = $2::text,
    error_code = $3::text,
    completed_at = now(),
    updated_at = now()
where id = $1::uuid
  and status = 'processing';
`
