package api

import (
	"net/http"
	"strings"

	"tryon-studio/internal/domain/valueobjects"
)

// indexPage is indexHTML with the upload accept filter filled in.
var indexPage = []byte(strings.ReplaceAll(indexHTML, "{{accept}}", strings.Join(valueobjects.AcceptedMediaTypes, ",")))

func (h *WorkflowHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Write(indexPage)
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1.0"/>
<title>Virtual Try-On Studio</title>
<script src="https://cdn.tailwindcss.com"></script>
<style>
body { font-family: Inter, system-ui, -apple-system, Segoe UI, Roboto, sans-serif; }
.preview-box{width:100%;height:320px;background:#f3f4f6;border:2px dashed #d1d5db;display:flex;align-items:center;justify-content:center;overflow:hidden;border-radius:8px;cursor:pointer}
.preview-box img{max-width:100%;max-height:100%;object-fit:contain}
.preview-box.drag-over{border-color:#6366f1;background:#eef2ff}
.result-preview{width:100%;height:420px;background:#f3f4f6;border:2px dashed #d1d5db;display:flex;align-items:center;justify-content:center;overflow:hidden;border-radius:8px}
.result-preview img{max-width:100%;max-height:100%;object-fit:contain}
.loader{border:8px solid #f3f3f3;border-top:8px solid #6366f1;border-radius:50%;width:56px;height:56px;animation:spin 1.2s linear infinite}
@keyframes spin{0%{transform:rotate(0)}100%{transform:rotate(360deg)}}
button:disabled{opacity:.5;cursor:not-allowed}
</style>
</head>
<body class="bg-gray-50 text-gray-800">
<div class="container mx-auto p-4 md:p-8 max-w-5xl">
<header class="text-center mb-8">
<h1 class="text-3xl md:text-4xl font-bold text-gray-900">Virtual Try-On Studio</h1>
<p class="text-gray-600 mt-2">Upload a photo of yourself and a garment, then refine the result with an edit.</p>
</header>

<main class="bg-white p-6 md:p-8 rounded-2xl shadow-lg">
<div class="grid grid-cols-1 md:grid-cols-2 gap-6 mb-6">
<div>
<label class="block text-lg font-semibold mb-2 text-gray-700">1. Your photo</label>
<div class="preview-box" id="user-box" data-slot="user"><span class="text-gray-400">Click or drop an image</span></div>
<input type="file" id="user-input" accept="{{accept}}" class="hidden"/>
</div>
<div>
<label class="block text-lg font-semibold mb-2 text-gray-700">2. Garment photo</label>
<div class="preview-box" id="garment-box" data-slot="garment"><span class="text-gray-400">Click or drop an image</span></div>
<input type="file" id="garment-input" accept="{{accept}}" class="hidden"/>
</div>
</div>

<div class="flex flex-wrap justify-center gap-3 mb-8">
<button id="generate-btn" class="bg-gradient-to-r from-indigo-500 to-purple-600 text-white font-bold py-3 px-10 rounded-full hover:shadow-xl transition-all">Generate</button>
<button id="reset-btn" class="px-6 py-2 text-sm rounded-lg border border-gray-300 text-gray-600 hover:bg-gray-50">Reset</button>
</div>

<div id="error-message" class="mb-6 hidden bg-red-100 border border-red-400 text-red-700 px-4 py-3 rounded-lg"></div>

<section>
<div class="flex items-center justify-between mb-3">
<h2 class="text-2xl font-bold text-gray-800">Result</h2>
<div class="flex gap-2">
<button id="mode-tryon" class="px-4 py-1 rounded-lg border text-sm">Try-on</button>
<button id="mode-edit" class="px-4 py-1 rounded-lg border text-sm">Edit</button>
<a id="download-link" href="/api/result/download" class="hidden px-4 py-1 rounded-lg bg-indigo-600 text-white text-sm">Download</a>
</div>
</div>
<div id="result-display" class="result-preview"><span class="text-gray-400">No result yet</span></div>
<p id="response-text" class="mt-3 text-gray-600 hidden"></p>

<div id="edit-panel" class="mt-6 hidden">
<label class="block text-lg font-semibold mb-2 text-gray-700">Edit instruction</label>
<textarea id="instruction" rows="3" class="w-full px-4 py-3 border border-gray-300 rounded-lg" placeholder="e.g. make the jacket red"></textarea>
<div class="text-center mt-3">
<button id="edit-btn" class="bg-gradient-to-r from-orange-500 to-red-600 text-white font-bold py-3 px-10 rounded-full">Apply edit</button>
</div>
</div>
</section>
</main>
</div>
<script>
const $ = (id) => document.getElementById(id);
let state = null;

async function call(method, url, body, json) {
    const opts = { method: method };
    if (json) {
        opts.headers = { 'Content-Type': 'application/json' };
        opts.body = JSON.stringify(body);
    } else if (body) {
        opts.body = body;
    }
    const resp = await fetch(url, opts);
    const data = await resp.json().catch(() => ({}));
    if (!resp.ok) {
        showError(data.error || ('HTTP ' + resp.status));
        return null;
    }
    render(data);
    return data;
}

function showError(msg) {
    const el = $('error-message');
    if (msg) {
        el.textContent = msg;
        el.classList.remove('hidden');
    } else {
        el.classList.add('hidden');
    }
}

function renderSlot(boxId, image) {
    const box = $(boxId);
    if (image) {
        box.innerHTML = '<img src="' + image.url + '" alt=""/>';
    } else {
        box.innerHTML = '<span class="text-gray-400">Click or drop an image</span>';
    }
}

function render(s) {
    if (state && s.version < state.version) return;
    state = s;
    renderSlot('user-box', s.userPhoto);
    renderSlot('garment-box', s.garmentPhoto);

    const result = $('result-display');
    if (s.busy) {
        result.innerHTML = '<div class="loader"></div>';
    } else if (s.result) {
        result.innerHTML = '<img src="' + s.result.url + '" alt="Generated image"/>';
    } else {
        result.innerHTML = '<span class="text-gray-400">No result yet</span>';
    }
    $('response-text').textContent = s.resultResponse || '';
    $('response-text').classList.toggle('hidden', !s.resultResponse);
    $('download-link').classList.toggle('hidden', !s.result);

    $('generate-btn').disabled = !s.canGenerate;
    $('mode-edit').disabled = s.busy || !s.canEdit;
    $('mode-tryon').disabled = s.busy;
    $('mode-edit').classList.toggle('bg-indigo-100', s.mode === 'edit');
    $('mode-tryon').classList.toggle('bg-indigo-100', s.mode === 'tryon');
    $('edit-panel').classList.toggle('hidden', s.mode !== 'edit');
    $('edit-btn').disabled = s.busy;
    if (document.activeElement !== $('instruction')) {
        $('instruction').value = s.editInstruction || '';
    }
    showError(s.errorMessage);
}

function setupSlot(slot) {
    const box = $(slot + '-box');
    const input = $(slot + '-input');
    const upload = (file) => {
        if (!file || (state && state.busy)) return;
        const form = new FormData();
        form.append('image', file);
        call('POST', '/api/uploads/' + slot, form, false);
    };
    box.addEventListener('click', () => input.click());
    box.addEventListener('dragover', (e) => { e.preventDefault(); box.classList.add('drag-over'); });
    box.addEventListener('dragleave', (e) => { e.preventDefault(); box.classList.remove('drag-over'); });
    box.addEventListener('drop', (e) => {
        e.preventDefault();
        box.classList.remove('drag-over');
        upload(e.dataTransfer.files[0]);
    });
    input.addEventListener('change', (e) => { upload(e.target.files[0]); input.value = ''; });
}

setupSlot('user');
setupSlot('garment');
$('generate-btn').addEventListener('click', () => call('POST', '/api/generate'));
$('reset-btn').addEventListener('click', () => call('POST', '/api/reset'));
$('mode-tryon').addEventListener('click', () => call('PUT', '/api/mode', { mode: 'tryon' }, true));
$('mode-edit').addEventListener('click', () => call('PUT', '/api/mode', { mode: 'edit' }, true));
$('edit-btn').addEventListener('click', () => call('POST', '/api/edit', { instruction: $('instruction').value }, true));

function connect() {
    const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    const ws = new WebSocket(proto + location.host + '/api/ws');
    ws.onmessage = (e) => render(JSON.parse(e.data));
    ws.onclose = () => setTimeout(connect, 2000);
}

fetch('/api/state').then((r) => r.json()).then(render);
connect();
</script>
</body>
</html>`
